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
package data

import (
	"context"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Company struct {
	ID        int64       `db:"id" json:"-" toml:"-" mapstructure:"-"`
	Ticker    string      `db:"ticker" json:"ticker" toml:"ticker" mapstructure:"ticker"`
	Name      string      `db:"name" json:"name" toml:"name" mapstructure:"name"`
	Sector    null.String `db:"sector" json:"sector" toml:"-" mapstructure:"-"`
	Industry  null.String `db:"industry" json:"industry" toml:"-" mapstructure:"-"`
	CreatedOn time.Time   `db:"created_on" json:"-" toml:"-" mapstructure:"-"`
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// DisplayName returns "Name (TICKER)" or just the ticker when no name is known
func (company *Company) DisplayName() string {
	if company.Name == "" {
		return company.Ticker
	}
	return company.Name + " (" + company.Ticker + ")"
}

// SaveDB creates the company if it does not exist and loads its id. The ticker
// is the identity of a company and is never changed; name, sector and industry
// are only filled in when they were previously unknown.
func (company *Company) SaveDB(ctx context.Context, db DB) error {
	company.Ticker = NormalizeTicker(company.Ticker)

	err := db.QueryRow(ctx, `INSERT INTO companies (
		"ticker",
		"name",
		"sector",
		"industry"
	) VALUES (
		$1, $2, $3, $4
	) ON CONFLICT ON CONSTRAINT companies_ticker_key DO UPDATE SET
		name = COALESCE(NULLIF(companies.name, ''), EXCLUDED.name),
		sector = COALESCE(companies.sector, EXCLUDED.sector),
		industry = COALESCE(companies.industry, EXCLUDED.industry)
	RETURNING id, name, sector, industry, created_on`,
		company.Ticker,
		company.Name,
		company.Sector,
		company.Industry,
	).Scan(&company.ID, &company.Name, &company.Sector, &company.Industry, &company.CreatedOn)

	if err != nil {
		log.Error().Err(err).Object("Company", company).Msg("save company to DB failed")
	}

	return err
}

func (company *Company) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Ticker", company.Ticker)
	e.Str("Name", company.Name)
}
