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
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvratio/cache"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/etl"
	"github.com/penny-vault/pvratio/healthcheck"
	"github.com/penny-vault/pvratio/library"
	"github.com/penny-vault/pvratio/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runDaemon     bool
	runRefresh    bool
	runStatements []string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [ticker...]",
	Short: "Download financial statements and save them to the database",
	Long: `The run sub-command fetches the income statement, balance sheet and cash flow
statement of each tracked company and stores every fiscal period that is not
already in the database. If tickers are provided only those companies are
fetched.

With --daemon the command stays in the foreground and repeats the ingestion on
the configured cron schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		runner, err := newRunner(myLibrary)
		if err != nil {
			log.Fatal().Err(err).Msg("could not configure ingestion")
		}

		configured, err := configuredCompanies()
		if err != nil {
			log.Fatal().Err(err).Msg("could not read configured companies")
		}
		companies := selectCompanies(configured, args)

		if !runDaemon {
			if err := ingest(ctx, runner, companies); err != nil {
				os.Exit(1)
			}
			return
		}

		daemon, err := etl.NewDaemon(ctx, viper.GetString("schedule"), func(ctx context.Context) {
			// failures are reported by ingest; the daemon keeps its schedule
			_ = ingest(ctx, runner, companies)
		})
		if err != nil {
			log.Fatal().Err(err).Msg("could not schedule ingestion")
		}

		daemon.Start()
		<-ctx.Done()

		log.Info().Msg("shutting down; waiting for running ingestion to finish")
		daemon.Stop()
	},
}

// openLibrary connects to the configured database
func openLibrary(ctx context.Context) (*library.Library, error) {
	dbURL, err := requireConfig("db.url")
	if err != nil {
		return nil, err
	}
	return library.NewFromDB(ctx, dbURL)
}

// newRunner configures an ingestion runner backed by Alpha Vantage
func newRunner(store etl.Store) (*etl.Runner, error) {
	apiKey, err := requireConfig("alphavantage.apikey")
	if err != nil {
		return nil, err
	}

	statementTypes := make([]data.StatementType, 0, len(runStatements))
	for _, name := range runStatements {
		statementType := data.StatementType(name)
		if !statementType.Valid() {
			return nil, fmt.Errorf("unknown statement type %q", name)
		}
		statementTypes = append(statementTypes, statementType)
	}

	rawCache := cache.New(viper.GetString("cache.dir"))
	source := provider.NewAlphaVantage(apiKey, viper.GetInt("alphavantage.rateLimit"), viper.GetString("alphavantage.reports"), rawCache)

	return &etl.Runner{
		Store:          store,
		Source:         source,
		StatementTypes: statementTypes,
		Overview:       viper.GetBool("alphavantage.overview"),
		Refresh:        runRefresh,
		Cache:          rawCache,
	}, nil
}

// ingest runs the pipeline once and reports the outcome to healthchecks.io
// when a check is configured
func ingest(ctx context.Context, runner *etl.Runner, companies []*data.Company) error {
	checkID := viper.GetString("healthchecks.checkId")
	pingID := uuid.New().String()

	if checkID != "" {
		if err := healthcheck.Start(checkID, pingID); err != nil {
			log.Warn().Err(err).Msg("healthcheck start ping failed")
		}
	}

	summary, err := runner.Run(ctx, companies)
	report := runReport(summary, err)

	if err != nil {
		log.Error().Err(err).Msg("ingestion failed")
		if checkID != "" {
			if pingErr := healthcheck.Fail(checkID, pingID, report); pingErr != nil {
				log.Warn().Err(pingErr).Msg("healthcheck fail ping failed")
			}
		}
		return err
	}

	log.Info().Str("RunTime", durafmt.Parse(summary.EndTime.Sub(summary.StartTime)).LimitFirstN(2).String()).
		Int("NumInserted", summary.NumInserted).
		Int("UpstreamErrors", summary.UpstreamErrors).
		Msg("ingestion finished")

	if checkID != "" {
		if err := healthcheck.Success(checkID, pingID, report); err != nil {
			log.Warn().Err(err).Msg("healthcheck success ping failed")
		}
	}

	return nil
}

// runReport is the plain text body attached to healthcheck pings
func runReport(summary *data.RunSummary, err error) string {
	if summary == nil {
		return fmt.Sprintf("run failed: %v", err)
	}

	body := fmt.Sprintf("run %s took %s\ncompanies: %d\napi calls: %d\ncache hits: %d\nupstream errors: %d\nrecords fetched: %d\ninserted: %d\nduplicates: %d\ndata quality findings: %d\n",
		summary.ID,
		durafmt.Parse(summary.EndTime.Sub(summary.StartTime)).LimitFirstN(2),
		summary.NumCompanies,
		summary.APICalls,
		summary.CacheHits,
		summary.UpstreamErrors,
		summary.NumFetched,
		summary.NumInserted,
		summary.NumDuplicates,
		summary.NumFindings,
	)

	if err != nil {
		body += fmt.Sprintf("error: %v\n", err)
	}

	return body
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDaemon, "daemon", false, "run on the configured schedule until interrupted")
	runCmd.Flags().BoolVar(&runRefresh, "refresh", false, "discard cached API responses before fetching")
	runCmd.Flags().StringSliceVar(&runStatements, "statement", nil, "statement types to fetch (INCOME_STATEMENT, BALANCE_SHEET, CASH_FLOW)")

	runCmd.Flags().String("schedule", "", "cron schedule used with --daemon")
	if err := viper.BindPFlag("schedule", runCmd.Flags().Lookup("schedule")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for schedule failed")
	}
}
