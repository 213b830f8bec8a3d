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

// Package metrics turns raw statement records into an ordered series of
// profitability, liquidity and efficiency ratios.
package metrics

import (
	"sort"

	"github.com/penny-vault/pvratio/data"
)

// Line items read from each statement
const (
	TotalRevenue            = "totalRevenue"
	GrossProfit             = "grossProfit"
	OperatingIncome         = "operatingIncome"
	NetIncome               = "netIncome"
	TotalCurrentAssets      = "totalCurrentAssets"
	TotalCurrentLiabilities = "totalCurrentLiabilities"
	TotalAssets             = "totalAssets"
	Inventory               = "inventory"
)

var (
	IncomeFields  = []string{TotalRevenue, GrossProfit, OperatingIncome, NetIncome}
	BalanceFields = []string{TotalCurrentAssets, TotalCurrentLiabilities, TotalAssets, Inventory}
)

// Row holds the ratios for a single fiscal period. Percentages and ratios are
// rounded to two decimals; Revenue and NetIncome are reported as-is.
type Row struct {
	Period          string  `json:"period" csv:"Period" parquet:"name=period, type=BYTE_ARRAY, convertedtype=UTF8"`
	GrossMargin     float64 `json:"grossMargin" csv:"Gross Margin %" parquet:"name=gross_margin, type=DOUBLE"`
	OperatingMargin float64 `json:"operatingMargin" csv:"Operating Margin %" parquet:"name=operating_margin, type=DOUBLE"`
	NetMargin       float64 `json:"netMargin" csv:"Net Margin %" parquet:"name=net_margin, type=DOUBLE"`
	CurrentRatio    float64 `json:"currentRatio" csv:"Current Ratio" parquet:"name=current_ratio, type=DOUBLE"`
	AssetTurnover   float64 `json:"assetTurnover" csv:"Asset Turnover" parquet:"name=asset_turnover, type=DOUBLE"`
	Revenue         float64 `json:"revenue" csv:"Revenue" parquet:"name=revenue, type=DOUBLE"`
	NetIncome       float64 `json:"netIncome" csv:"Net Income" parquet:"name=net_income, type=DOUBLE"`
}

type incomeValues struct {
	revenue         float64
	grossProfit     float64
	operatingIncome float64
	netIncome       float64
}

type balanceValues struct {
	currentAssets      float64
	currentLiabilities float64
	totalAssets        float64
}

// Compute derives a Row for every period that has both an income statement
// and a balance sheet. Cash flow statements and unknown types are ignored.
// When the same statement type appears twice for a period the first record
// is used. Missing or unparseable line items count as 0. The result is
// sorted by period and is never nil.
func Compute(records []*data.StatementRecord) []Row {
	income := make(map[string]incomeValues)
	balance := make(map[string]balanceValues)

	for _, record := range records {
		if record == nil {
			continue
		}

		period := record.Period()
		switch record.Type {
		case data.IncomeStatement:
			if _, seen := income[period]; seen {
				continue
			}
			income[period] = incomeValues{
				revenue:         record.Fields.Float(TotalRevenue),
				grossProfit:     record.Fields.Float(GrossProfit),
				operatingIncome: record.Fields.Float(OperatingIncome),
				netIncome:       record.Fields.Float(NetIncome),
			}
		case data.BalanceSheet:
			if _, seen := balance[period]; seen {
				continue
			}
			balance[period] = balanceValues{
				currentAssets:      record.Fields.Float(TotalCurrentAssets),
				currentLiabilities: record.Fields.Float(TotalCurrentLiabilities),
				totalAssets:        record.Fields.Float(TotalAssets),
			}
		}
	}

	rows := make([]Row, 0, len(income))
	for period, inc := range income {
		bal, ok := balance[period]
		if !ok {
			continue
		}

		rows = append(rows, Row{
			Period:          period,
			GrossMargin:     Round(percentOf(inc.grossProfit, inc.revenue)),
			OperatingMargin: Round(percentOf(inc.operatingIncome, inc.revenue)),
			NetMargin:       Round(percentOf(inc.netIncome, inc.revenue)),
			CurrentRatio:    Round(safeDiv(bal.currentAssets, bal.currentLiabilities)),
			AssetTurnover:   Round(safeDiv(inc.revenue, bal.totalAssets)),
			Revenue:         inc.revenue,
			NetIncome:       inc.netIncome,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Period < rows[j].Period
	})

	return rows
}

// Latest returns the row for the most recent period
func Latest(rows []Row) (Row, bool) {
	if len(rows) == 0 {
		return Row{}, false
	}
	return rows[len(rows)-1], true
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
