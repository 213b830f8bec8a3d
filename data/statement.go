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
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type StatementType string

const (
	IncomeStatement StatementType = "INCOME_STATEMENT"
	BalanceSheet    StatementType = "BALANCE_SHEET"
	CashFlow        StatementType = "CASH_FLOW"
)

// StatementTypes lists every statement type in ingestion order
var StatementTypes = []StatementType{IncomeStatement, BalanceSheet, CashFlow}

// FiscalDateLayout is the layout of fiscal period identifiers
const FiscalDateLayout = "2006-01-02"

func (statementType StatementType) Valid() bool {
	for _, known := range StatementTypes {
		if statementType == known {
			return true
		}
	}
	return false
}

// StatementRecord holds the raw line items a company reported on one
// statement for a single fiscal period
type StatementRecord struct {
	ID               int64         `db:"id"`
	CompanyID        int64         `db:"company_id"`
	Type             StatementType `db:"statement_type"`
	FiscalDateEnding time.Time     `db:"fiscal_date_ending"`
	Fields           Fields        `db:"data"`
}

// Period returns the fiscal period identifier (YYYY-MM-DD)
func (record *StatementRecord) Period() string {
	return record.FiscalDateEnding.Format(FiscalDateLayout)
}

// SaveDB inserts the record unless one already exists for the same company,
// statement type and fiscal date. Existing records are never overwritten.
// The returned bool reports whether a row was written.
func (record *StatementRecord) SaveDB(ctx context.Context, db DB) (bool, error) {
	tag, err := db.Exec(ctx, `INSERT INTO financial_statements (
		"company_id",
		"statement_type",
		"fiscal_date_ending",
		"data"
	) VALUES (
		$1, $2, $3, $4
	) ON CONFLICT ON CONSTRAINT financial_statements_company_type_date_key DO NOTHING`,
		record.CompanyID,
		string(record.Type),
		record.FiscalDateEnding,
		record.Fields,
	)
	if err != nil {
		log.Error().Err(err).Object("Statement", record).Msg("save statement to DB failed")
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (record *StatementRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("CompanyID", record.CompanyID)
	e.Str("StatementType", string(record.Type))
	e.Str("FiscalDateEnding", record.Period())
}
