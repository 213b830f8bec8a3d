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
package provider

import (
	"context"
	"errors"

	"github.com/penny-vault/pvratio/data"
)

var (
	// ErrUpstream marks failures reported by the data provider. They are
	// never cached and never abort an ingestion run.
	ErrUpstream          = errors.New("upstream error")
	ErrInvalidStatusCode = errors.New("invalid status code")
	ErrNoReports         = errors.New("no reports in response")
	ErrMalformed         = errors.New("malformed response")
)

type Provider interface {
	Name() string
	ConfigDescription() map[string]string
	Description() string
	Datasets() map[string]Dataset
}

type Dataset struct {
	Name          string
	Description   string
	Function      string
	StatementType data.StatementType
}

// StatementSource retrieves statements and company details for a ticker
type StatementSource interface {
	FetchStatements(ctx context.Context, ticker string, statementType data.StatementType) (*Statements, error)
	FetchOverview(ctx context.Context, ticker string) (*Overview, error)
}

// Statements is the parsed result of one statement request. Records do not
// have a company id set.
type Statements struct {
	Records   []*data.StatementRecord
	FromCache bool
	// Skipped counts reports that had no usable fiscal date
	Skipped int
}

// Overview describes a company
type Overview struct {
	Symbol    string
	Name      string
	Sector    string
	Industry  string
	FromCache bool
}

// Map lists the providers that can be described by the providers command
var Map = map[string]Provider{
	AlphaVantageName: &AlphaVantage{},
}
