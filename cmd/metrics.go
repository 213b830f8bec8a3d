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

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/metrics"
	"github.com/penny-vault/pvratio/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:   "metrics <ticker>",
	Short: "Print the financial ratios of a company",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		dashboard, err := loadDashboard(ctx, myLibrary, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", args[0]).Msg("could not load statements")
		}

		if metricsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(dashboard); err != nil {
				log.Fatal().Err(err).Msg("could not encode metrics")
			}
			return
		}

		if !dashboard.Empty {
			fmt.Println(report.TileBoxes(dashboard))
		}
		fmt.Print(renderMarkdown(report.Markdown(dashboard)))
	},
}

type statementLoader interface {
	GetStatements(ctx context.Context, ticker string) (*data.Company, []*data.StatementRecord, error)
}

// loadDashboard computes the metrics of ticker from the stored statements
func loadDashboard(ctx context.Context, store statementLoader, ticker string) (report.Dashboard, error) {
	ticker = data.NormalizeTicker(ticker)

	company, records, err := store.GetStatements(ctx, ticker)
	if err != nil {
		return report.Dashboard{}, err
	}

	rows := metrics.Compute(records)
	findings := metrics.Audit(records)

	return report.Build(ticker, company, rows, findings), nil
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "print the metrics as JSON")
}
