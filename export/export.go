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
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/metrics"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Record is a metrics row labeled with its company
type Record struct {
	Ticker          string  `csv:"Ticker" json:"ticker" parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Name            string  `csv:"Name" json:"name" parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Period          string  `csv:"Period" json:"period" parquet:"name=period, type=BYTE_ARRAY, convertedtype=UTF8"`
	GrossMargin     float64 `csv:"Gross Margin %" json:"grossMargin" parquet:"name=gross_margin, type=DOUBLE"`
	OperatingMargin float64 `csv:"Operating Margin %" json:"operatingMargin" parquet:"name=operating_margin, type=DOUBLE"`
	NetMargin       float64 `csv:"Net Margin %" json:"netMargin" parquet:"name=net_margin, type=DOUBLE"`
	CurrentRatio    float64 `csv:"Current Ratio" json:"currentRatio" parquet:"name=current_ratio, type=DOUBLE"`
	AssetTurnover   float64 `csv:"Asset Turnover" json:"assetTurnover" parquet:"name=asset_turnover, type=DOUBLE"`
	Revenue         float64 `csv:"Revenue" json:"revenue" parquet:"name=revenue, type=DOUBLE"`
	NetIncome       float64 `csv:"Net Income" json:"netIncome" parquet:"name=net_income, type=DOUBLE"`
}

// Records labels each row with the company it belongs to
func Records(company *data.Company, rows []metrics.Row) []*Record {
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, &Record{
			Ticker:          company.Ticker,
			Name:            company.Name,
			Period:          row.Period,
			GrossMargin:     row.GrossMargin,
			OperatingMargin: row.OperatingMargin,
			NetMargin:       row.NetMargin,
			CurrentRatio:    row.CurrentRatio,
			AssetTurnover:   row.AssetTurnover,
			Revenue:         row.Revenue,
			NetIncome:       row.NetIncome,
		})
	}
	return records
}

// FileName returns the path of an export created at asOf
func FileName(dir string, format Format, asOf time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("pvratio-metrics-%s.%s", asOf.Format("20060102"), format))
}

// Write saves records to fn in the requested format
func Write(records []*Record, fn string, format Format) error {
	switch format {
	case CSV:
		return WriteCSV(records, fn)
	case Parquet:
		return WriteParquet(records, fn)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func WriteCSV(records []*Record, fn string) error {
	fh, err := os.Create(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	if err := gocsv.MarshalFile(&records, fh); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("CSV write failed")
		return err
	}

	log.Info().Int("NumRecords", len(records)).Str("FileName", fn).Msg("CSV write finished")
	return nil
}

func WriteParquet(records []*Record, fn string) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(Record), 4)
	if err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, record := range records {
		if err := pw.Write(record); err != nil {
			log.Error().Err(err).Str("Ticker", record.Ticker).Str("Period", record.Period).Msg("parquet write failed for record")
			return err
		}
	}

	if err := pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	log.Info().Int("NumRecords", len(records)).Str("FileName", fn).Msg("parquet write finished")
	return nil
}
