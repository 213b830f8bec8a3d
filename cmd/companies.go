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
	"strings"

	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List tracked companies and the statements stored for each",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		configured, err := configuredCompanies()
		if err != nil {
			log.Fatal().Err(err).Msg("could not read configured companies")
		}

		stats, err := myLibrary.CompanyStats(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load company statistics")
		}

		fmt.Print(renderMarkdown(companiesTable(configured, stats)))
	},
}

// companiesTable lists configured companies first followed by any other
// company found in the database
func companiesTable(configured []*data.Company, stats []*library.CompanyStats) string {
	p := message.NewPrinter(language.English)

	byTicker := make(map[string]*library.CompanyStats, len(stats))
	for _, stat := range stats {
		byTicker[stat.Ticker] = stat
	}

	builder := strings.Builder{}
	builder.WriteString("# Companies\n\n")
	builder.WriteString("| Ticker | Name | Tracked | Statements | First Period | Last Period |\n")
	builder.WriteString("|---|---|---|---:|---|---|\n")

	row := func(ticker, name, tracked string, stat *library.CompanyStats) {
		if stat == nil {
			builder.WriteString(fmt.Sprintf("| %s | %s | %s | 0 | - | - |\n", ticker, name, tracked))
			return
		}
		if name == "" {
			name = stat.Name
		}
		builder.WriteString(p.Sprintf("| %s | %s | %s | %d | %s | %s |\n", ticker, name, tracked, stat.NumStatements,
			stat.FirstPeriod.Format(data.FiscalDateLayout), stat.LastPeriod.Format(data.FiscalDateLayout)))
	}

	for _, company := range configured {
		row(company.Ticker, company.Name, "yes", byTicker[company.Ticker])
		delete(byTicker, company.Ticker)
	}

	for _, stat := range stats {
		if _, ok := byTicker[stat.Ticker]; ok {
			row(stat.Ticker, stat.Name, "no", stat)
		}
	}

	return builder.String()
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}
