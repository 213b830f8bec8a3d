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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// DB is the subset of a pgx pool or transaction used to save records
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunSummary collects counts for a single ingestion run
type RunSummary struct {
	ID        uuid.UUID
	StartTime time.Time
	EndTime   time.Time

	NumCompanies   int
	APICalls       int
	CacheHits      int
	UpstreamErrors int

	NumFetched    int
	NumInserted   int
	NumDuplicates int
	NumFindings   int
}

func (summary *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", summary.ID.String())
	e.Dur("RunTime", summary.EndTime.Sub(summary.StartTime))
	e.Int("NumCompanies", summary.NumCompanies)
	e.Int("APICalls", summary.APICalls)
	e.Int("CacheHits", summary.CacheHits)
	e.Int("UpstreamErrors", summary.UpstreamErrors)
	e.Int("NumFetched", summary.NumFetched)
	e.Int("NumInserted", summary.NumInserted)
	e.Int("NumDuplicates", summary.NumDuplicates)
	e.Int("NumFindings", summary.NumFindings)
}
