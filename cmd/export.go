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
	"os"
	"time"

	"github.com/penny-vault/pvratio/backblaze"
	"github.com/penny-vault/pvratio/export"
	"github.com/penny-vault/pvratio/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportDir    string
	exportUpload bool
)

var exportCmd = &cobra.Command{
	Use:   "export [ticker...]",
	Short: "Write the financial ratios of tracked companies to a CSV or Parquet file",
	Long: `The export sub-command computes the ratios of every tracked company (or the
tickers given as arguments) and writes them to a single file named
pvratio-metrics-YYYYMMDD.csv or .parquet. With --upload the file is copied to the
configured Backblaze B2 bucket.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		format := export.Format(exportFormat)
		if format != export.CSV && format != export.Parquet {
			log.Fatal().Str("Format", exportFormat).Msg("format must be csv or parquet")
		}

		var uploadConfig backblaze.Config
		if exportUpload {
			uploadConfig = backblaze.ConfigFromViper()
			if !uploadConfig.Enabled() {
				log.Fatal().Err(backblaze.ErrNotConfigured).Msg("cannot upload export")
			}
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		configured, err := configuredCompanies()
		if err != nil {
			log.Fatal().Err(err).Msg("could not read configured companies")
		}

		records := make([]*export.Record, 0)
		for _, company := range selectCompanies(configured, args) {
			stored, statements, err := myLibrary.GetStatements(ctx, company.Ticker)
			if err != nil {
				log.Fatal().Err(err).Str("Ticker", company.Ticker).Msg("could not load statements")
			}

			if stored == nil {
				log.Warn().Str("Ticker", company.Ticker).Msg("no statements stored; run the ingestion first")
				continue
			}

			records = append(records, export.Records(stored, metrics.Compute(statements))...)
		}

		if err := os.MkdirAll(exportDir, 0755); err != nil {
			log.Fatal().Err(err).Str("Dir", exportDir).Msg("could not create export directory")
		}

		fn := export.FileName(exportDir, format, time.Now())
		if err := export.Write(records, fn, format); err != nil {
			log.Fatal().Err(err).Msg("export failed")
		}

		if exportUpload {
			if err := backblaze.Upload(uploadConfig, fn, "pvratio"); err != nil {
				log.Fatal().Err(err).Msg("upload failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.CSV), "output format (csv or parquet)")
	exportCmd.Flags().StringVarP(&exportDir, "output", "o", ".", "directory to write the export to")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "copy the export to Backblaze B2")
}
