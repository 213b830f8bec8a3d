// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/penny-vault/pvratio/cache"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/metrics"
	"github.com/penny-vault/pvratio/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store persists companies and statements
type Store interface {
	EnsureCompany(ctx context.Context, company *data.Company) error
	SaveStatements(ctx context.Context, records []*data.StatementRecord) (inserted int, duplicates int, err error)
}

// Runner downloads statements for a list of companies and saves them. Work
// is done one request at a time.
type Runner struct {
	Store          Store
	Source         provider.StatementSource
	StatementTypes []data.StatementType

	// Overview fills in company name, sector and industry from the provider
	Overview bool

	// Refresh discards cached responses before fetching
	Refresh bool
	Cache   *cache.Cache
}

// Run ingests every statement type for each company. Upstream errors are
// counted and skipped; store errors end the run.
func (runner *Runner) Run(ctx context.Context, companies []*data.Company) (*data.RunSummary, error) {
	summary := &data.RunSummary{
		ID:        uuid.New(),
		StartTime: time.Now(),
	}

	logger := log.With().Str("RunID", summary.ID.String()).Logger()
	ctx = logger.WithContext(ctx)

	statementTypes := runner.StatementTypes
	if len(statementTypes) == 0 {
		statementTypes = data.StatementTypes
	}

	err := runner.run(ctx, companies, statementTypes, summary)

	summary.EndTime = time.Now()
	recordRun(summary, err)

	if err != nil {
		logger.Error().Err(err).Object("Summary", summary).Msg("ingestion run failed")
		return summary, err
	}

	logger.Info().Object("Summary", summary).Msg("ingestion run complete")
	return summary, nil
}

func (runner *Runner) run(ctx context.Context, companies []*data.Company, statementTypes []data.StatementType, summary *data.RunSummary) error {
	for _, configured := range companies {
		if err := ctx.Err(); err != nil {
			return err
		}

		company := &data.Company{
			Ticker: data.NormalizeTicker(configured.Ticker),
			Name:   configured.Name,
		}

		logger := zerolog.Ctx(ctx).With().Str("Ticker", company.Ticker).Logger()
		companyCtx := logger.WithContext(ctx)

		if runner.Overview {
			if err := runner.overview(companyCtx, company, summary); err != nil {
				return err
			}
		}

		if err := runner.Store.EnsureCompany(companyCtx, company); err != nil {
			return fmt.Errorf("save company %s: %w", company.Ticker, err)
		}

		summary.NumCompanies++

		for _, statementType := range statementTypes {
			if err := runner.ingest(companyCtx, company, statementType, summary); err != nil {
				return err
			}
		}
	}

	return nil
}

func (runner *Runner) overview(ctx context.Context, company *data.Company, summary *data.RunSummary) error {
	logger := zerolog.Ctx(ctx)

	if runner.Refresh {
		if err := runner.Cache.Remove(company.Ticker, provider.OverviewFunction); err != nil {
			logger.Warn().Err(err).Msg("could not remove cached overview")
		}
	}

	overview, err := runner.Source.FetchOverview(ctx, company.Ticker)
	if errors.Is(err, provider.ErrUpstream) {
		summary.APICalls++
		summary.UpstreamErrors++
		logger.Warn().Err(err).Msg("skipping company overview")
		return nil
	}
	if err != nil {
		return err
	}

	countRequest(summary, overview.FromCache)

	if company.Name == "" {
		company.Name = overview.Name
	}
	if overview.Sector != "" {
		company.Sector = null.StringFrom(overview.Sector)
	}
	if overview.Industry != "" {
		company.Industry = null.StringFrom(overview.Industry)
	}

	return nil
}

func (runner *Runner) ingest(ctx context.Context, company *data.Company, statementType data.StatementType, summary *data.RunSummary) error {
	logger := zerolog.Ctx(ctx).With().Str("StatementType", string(statementType)).Logger()

	if runner.Refresh {
		if err := runner.Cache.Remove(company.Ticker, string(statementType)); err != nil {
			logger.Warn().Err(err).Msg("could not remove cached statements")
		}
	}

	statements, err := runner.Source.FetchStatements(ctx, company.Ticker, statementType)
	if errors.Is(err, provider.ErrUpstream) {
		summary.APICalls++
		summary.UpstreamErrors++
		logger.Warn().Err(err).Msg("skipping statements after upstream error")
		return nil
	}
	if err != nil {
		return err
	}

	countRequest(summary, statements.FromCache)

	for _, record := range statements.Records {
		record.CompanyID = company.ID
	}

	inserted, duplicates, err := runner.Store.SaveStatements(ctx, statements.Records)
	if err != nil {
		return fmt.Errorf("save %s statements for %s: %w", statementType, company.Ticker, err)
	}

	summary.NumFetched += len(statements.Records)
	summary.NumInserted += inserted
	summary.NumDuplicates += duplicates

	findings := metrics.Audit(statements.Records)
	for _, finding := range findings {
		if finding.Severity == metrics.SeverityWarning {
			logger.Warn().Object("Finding", finding).Msg("statement is missing data")
		} else {
			logger.Debug().Object("Finding", finding).Msg("statement is missing data")
		}
	}
	summary.NumFindings += len(findings)

	logger.Info().Int("NumFetched", len(statements.Records)).Int("NumInserted", inserted).
		Int("NumDuplicates", duplicates).Bool("FromCache", statements.FromCache).Msg("saved statements")

	return nil
}

func countRequest(summary *data.RunSummary, fromCache bool) {
	if fromCache {
		summary.CacheHits++
	} else {
		summary.APICalls++
	}
}
