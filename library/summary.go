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
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# Financial statement library\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Database connection string
	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", redactPassword(myLibrary.DBUrl))); err != nil {
		return "", err
	}

	numCompanies, err := myLibrary.NumCompanies(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies: %d\n", numCompanies)); err != nil {
		return "", err
	}

	numStatements, err := myLibrary.NumStatements(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Statement Records: %d\n\n", numStatements)); err != nil {
		return "", err
	}

	// Last updated time
	lastUpdated, err := myLibrary.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	if lastUpdated.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Updated: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(lastUpdated)
		if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	if _, err := builder.WriteString("## Companies\n\n"); err != nil {
		return "", err
	}

	stats, err := myLibrary.CompanyStats(ctx)
	if err != nil {
		return "", err
	}

	for _, company := range stats {
		coverage := "no statements"
		if company.NumStatements > 0 {
			coverage = fmt.Sprintf("%s - %s", company.FirstPeriod.Format("Jan 2006"), company.LastPeriod.Format("Jan 2006"))
		}

		if _, err := builder.WriteString(p.Sprintf("  * %s %s (%s) [%d records]\n", company.Ticker,
			company.Name, coverage, company.NumStatements)); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}

// redactPassword hides the password component of a database URL
func redactPassword(dbURL string) string {
	schemeEnd := strings.Index(dbURL, "://")
	at := strings.LastIndex(dbURL, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return dbURL
	}

	userInfo := dbURL[schemeEnd+3 : at]
	colon := strings.Index(userInfo, ":")
	if colon < 0 {
		return dbURL
	}

	return dbURL[:schemeEnd+3] + userInfo[:colon] + ":xxxxx" + dbURL[at:]
}
