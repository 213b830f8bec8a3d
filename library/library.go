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
package library

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/db"
	"github.com/rs/zerolog"
)

// PgxIface is the subset of *pgxpool.Pool used by the library. Each call
// acquires a pooled connection and releases it when the call completes.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type Library struct {
	DBUrl string `toml:"url" mapstructure:"url"`

	Pool PgxIface `toml:"-"`
}

// CompanyStats summarizes the statements stored for a company
type CompanyStats struct {
	Ticker        string    `db:"ticker"`
	Name          string    `db:"name"`
	NumStatements int       `db:"num_statements"`
	FirstPeriod   time.Time `db:"first_period"`
	LastPeriod    time.Time `db:"last_period"`
}

// NewFromDB creates a library connected to the database at dbURL
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	myLibrary := &Library{
		DBUrl: dbURL,
	}

	if err := myLibrary.Connect(ctx); err != nil {
		return nil, err
	}

	return myLibrary, nil
}

// NewWithPool creates a library that uses an existing pool
func NewWithPool(dbURL string, pool PgxIface) *Library {
	return &Library{
		DBUrl: dbURL,
		Pool:  pool,
	}
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("connect to database: %w", err)
	}

	myLibrary.Pool = pool
	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
		myLibrary.Pool = nil
	}
}

// Migrate creates or upgrades the library schema
func (myLibrary *Library) Migrate() error {
	return db.Migrate(myLibrary.DBUrl)
}

// Ping checks that the database is reachable
func (myLibrary *Library) Ping(ctx context.Context) error {
	return myLibrary.Pool.Ping(ctx)
}

// Company returns the company with the given ticker or nil if it is unknown
func (myLibrary *Library) Company(ctx context.Context, ticker string) (*data.Company, error) {
	company := &data.Company{}
	err := pgxscan.Get(ctx, myLibrary.Pool, company,
		`SELECT id, ticker, name, sector, industry, created_on FROM companies WHERE ticker = $1`,
		data.NormalizeTicker(ticker))
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load company %s: %w", ticker, err)
	}

	return company, nil
}

// GetStatements returns the company and all of its statement records ordered
// by fiscal date. The company is nil when the ticker is unknown.
func (myLibrary *Library) GetStatements(ctx context.Context, ticker string) (*data.Company, []*data.StatementRecord, error) {
	company, err := myLibrary.Company(ctx, ticker)
	if err != nil || company == nil {
		return nil, nil, err
	}

	records := make([]*data.StatementRecord, 0)
	err = pgxscan.Select(ctx, myLibrary.Pool, &records,
		`SELECT id, company_id, statement_type::text AS statement_type, fiscal_date_ending, data
FROM financial_statements WHERE company_id = $1
ORDER BY fiscal_date_ending, statement_type`, company.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load statements for %s: %w", company.Ticker, err)
	}

	zerolog.Ctx(ctx).Debug().Str("Ticker", company.Ticker).Int("NumRecords", len(records)).Msg("loaded statements")

	return company, records, nil
}

// EnsureCompany creates the company if needed and fills in its id
func (myLibrary *Library) EnsureCompany(ctx context.Context, company *data.Company) error {
	return company.SaveDB(ctx, myLibrary.Pool)
}

// SaveStatement inserts a single record; the returned bool is false when a
// record for the same company, type and fiscal date already exists
func (myLibrary *Library) SaveStatement(ctx context.Context, record *data.StatementRecord) (bool, error) {
	return record.SaveDB(ctx, myLibrary.Pool)
}

// SaveStatements inserts records in a single transaction and returns the
// number inserted and the number skipped as duplicates
func (myLibrary *Library) SaveStatements(ctx context.Context, records []*data.StatementRecord) (inserted int, duplicates int, err error) {
	tx, err := myLibrary.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transaction: %w", err)
	}

	for _, record := range records {
		created, err := record.SaveDB(ctx, tx)
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				zerolog.Ctx(ctx).Error().Err(rollbackErr).Msg("could not rollback transaction")
			}
			return 0, 0, err
		}

		if created {
			inserted++
		} else {
			duplicates++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit statements: %w", err)
	}

	return inserted, duplicates, nil
}

// Companies returns every company in the library ordered by ticker
func (myLibrary *Library) Companies(ctx context.Context) ([]*data.Company, error) {
	companies := make([]*data.Company, 0)
	err := pgxscan.Select(ctx, myLibrary.Pool, &companies,
		`SELECT id, ticker, name, sector, industry, created_on FROM companies ORDER BY ticker`)
	return companies, err
}

// CompanyStats returns per-company statement counts and period coverage
func (myLibrary *Library) CompanyStats(ctx context.Context) ([]*CompanyStats, error) {
	stats := make([]*CompanyStats, 0)
	err := pgxscan.Select(ctx, myLibrary.Pool, &stats,
		`SELECT c.ticker, c.name, count(s.id) AS num_statements,
coalesce(min(s.fiscal_date_ending), '0001-01-01'::date) AS first_period,
coalesce(max(s.fiscal_date_ending), '0001-01-01'::date) AS last_period
FROM companies c LEFT JOIN financial_statements s ON s.company_id = c.id
GROUP BY c.ticker, c.name ORDER BY c.ticker`)
	return stats, err
}

// NumCompanies returns the number of companies in the library
func (myLibrary *Library) NumCompanies(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM companies").Scan(&count)
	return count, err
}

// NumStatements returns the number of statement records in the library
func (myLibrary *Library) NumStatements(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM financial_statements").Scan(&count)
	return count, err
}

// LastUpdated returns when a statement was last written to the library
func (myLibrary *Library) LastUpdated(ctx context.Context) (time.Time, error) {
	var lastUpdated time.Time
	err := myLibrary.Pool.QueryRow(ctx, "SELECT coalesce(max(created_on), '0001-01-01'::timestamp) FROM financial_statements").Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, err
	}

	return lastUpdated, nil
}
