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
package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/metrics"
)

func statement(statementType data.StatementType, period string, values map[string]any) *data.StatementRecord {
	fiscalDate, err := time.Parse(data.FiscalDateLayout, period)
	Expect(err).NotTo(HaveOccurred())

	fields := make(data.Fields, len(values))
	for name, val := range values {
		switch v := val.(type) {
		case nil:
			fields[name] = data.Null()
		case string:
			fields[name] = data.String(v)
		case float64:
			fields[name] = data.Number(v)
		case int:
			fields[name] = data.Number(float64(v))
		}
	}

	return &data.StatementRecord{
		Type:             statementType,
		FiscalDateEnding: fiscalDate,
		Fields:           fields,
	}
}

func income(period string, revenue, grossProfit, operatingIncome, netIncome any) *data.StatementRecord {
	return statement(data.IncomeStatement, period, map[string]any{
		"totalRevenue":    revenue,
		"grossProfit":     grossProfit,
		"operatingIncome": operatingIncome,
		"netIncome":       netIncome,
	})
}

func balance(period string, currentAssets, currentLiabilities, totalAssets any) *data.StatementRecord {
	return statement(data.BalanceSheet, period, map[string]any{
		"totalCurrentAssets":      currentAssets,
		"totalCurrentLiabilities": currentLiabilities,
		"totalAssets":             totalAssets,
		"inventory":               "150",
	})
}

var _ = Describe("Compute", func() {
	It("computes every ratio for a matched period", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2023-12-31", 500, 250, 2000),
		})

		Expect(rows).To(HaveLen(1))
		Expect(rows[0]).To(Equal(metrics.Row{
			Period:          "2023-12-31",
			GrossMargin:     40.0,
			OperatingMargin: 20.0,
			NetMargin:       10.0,
			CurrentRatio:    2.0,
			AssetTurnover:   0.5,
			Revenue:         1000,
			NetIncome:       100,
		}))
	})

	It("skips periods without a balance sheet", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2022-12-31", 900, 300, 100, 50),
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2023-12-31", 500, 250, 2000),
		})

		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Period).To(Equal("2023-12-31"))
	})

	It("skips periods without an income statement", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			balance("2021-12-31", 500, 250, 2000),
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2023-12-31", 500, 250, 2000),
		})

		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Period).To(Equal("2023-12-31"))
	})

	It("returns an empty, non-nil result when nothing overlaps", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2022-12-31", 900, 300, 100, 50),
			balance("2023-12-31", 500, 250, 2000),
		})
		Expect(rows).NotTo(BeNil())
		Expect(rows).To(BeEmpty())

		Expect(metrics.Compute(nil)).To(BeEmpty())
	})

	It("returns a current ratio of 0 when there are no current liabilities", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2023-12-31", 500, 0, 2000),
		})

		Expect(rows[0].CurrentRatio).To(Equal(0.0))
		Expect(rows[0].AssetTurnover).To(Equal(0.5))
	})

	It("returns zero margins when revenue is 0", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-12-31", 0, 400, 200, -100),
			balance("2023-12-31", 500, 250, 2000),
		})

		Expect(rows[0].GrossMargin).To(Equal(0.0))
		Expect(rows[0].OperatingMargin).To(Equal(0.0))
		Expect(rows[0].NetMargin).To(Equal(0.0))
		Expect(rows[0].AssetTurnover).To(Equal(0.0))
		Expect(rows[0].NetIncome).To(Equal(-100.0))
	})

	It("returns an asset turnover of 0 when total assets are 0", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2023-12-31", 500, 250, 0),
		})

		Expect(rows[0].AssetTurnover).To(Equal(0.0))
	})

	It("tolerates a balance sheet without inventory", func() {
		sheet := statement(data.BalanceSheet, "2023-12-31", map[string]any{
			"totalCurrentAssets":      500,
			"totalCurrentLiabilities": 250,
			"totalAssets":             2000,
		})

		rows := metrics.Compute([]*data.StatementRecord{income("2023-12-31", 1000, 400, 200, 100), sheet})
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].CurrentRatio).To(Equal(2.0))
	})

	It("treats provider placeholders and nulls as 0", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-12-31", "1000", "None", nil, "100"),
			balance("2023-12-31", "500", "", "2000"),
		})

		Expect(rows[0].GrossMargin).To(Equal(0.0))
		Expect(rows[0].OperatingMargin).To(Equal(0.0))
		Expect(rows[0].NetMargin).To(Equal(10.0))
		Expect(rows[0].CurrentRatio).To(Equal(0.0))
		Expect(rows[0].Revenue).To(Equal(1000.0))
	})

	It("treats non-finite values as 0", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-12-31", "1000", "NaN", "Inf", "-Infinity"),
			balance("2023-12-31", "500", "250", "2000"),
		})

		Expect(rows[0].GrossMargin).To(Equal(0.0))
		Expect(rows[0].OperatingMargin).To(Equal(0.0))
		Expect(rows[0].NetMargin).To(Equal(0.0))
		Expect(rows[0].NetIncome).To(Equal(0.0))
	})

	It("ignores cash flow statements and unknown types", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			statement(data.CashFlow, "2023-12-31", map[string]any{"totalRevenue": 5}),
			statement(data.StatementType("EARNINGS"), "2023-12-31", map[string]any{"totalRevenue": 5}),
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2023-12-31", 500, 250, 2000),
		})

		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Revenue).To(Equal(1000.0))
	})

	It("uses the first record when a period is repeated", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-12-31", 1000, 400, 200, 100),
			income("2023-12-31", 2000, 400, 200, 100),
			balance("2023-12-31", 500, 250, 2000),
			balance("2023-12-31", 900, 100, 1000),
		})

		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Revenue).To(Equal(1000.0))
		Expect(rows[0].CurrentRatio).To(Equal(2.0))
	})

	It("sorts rows by period regardless of input order", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			balance("2023-12-31", 500, 250, 2000),
			income("2021-12-31", 800, 300, 100, 50),
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2021-12-31", 500, 250, 2000),
			income("2022-12-31", 900, 300, 100, 50),
			balance("2022-12-31", 500, 250, 2000),
		})

		periods := make([]string, 0, len(rows))
		for _, row := range rows {
			periods = append(periods, row.Period)
		}
		Expect(periods).To(Equal([]string{"2021-12-31", "2022-12-31", "2023-12-31"}))
	})

	It("rounds ratios but passes revenue and net income through", func() {
		rows := metrics.Compute([]*data.StatementRecord{
			income("2023-09-30", 16034000000.0, 5288000000.0, 2960000000.0, 3261000000.0),
			balance("2023-09-30", 8060000000.0, 4290000000.0, 21731000000.0),
		})

		Expect(rows[0].GrossMargin).To(Equal(32.98))
		Expect(rows[0].OperatingMargin).To(Equal(18.46))
		Expect(rows[0].NetMargin).To(Equal(20.34))
		Expect(rows[0].CurrentRatio).To(Equal(1.88))
		Expect(rows[0].AssetTurnover).To(Equal(0.74))
		Expect(rows[0].Revenue).To(Equal(16034000000.0))
		Expect(rows[0].NetIncome).To(Equal(3261000000.0))
	})

	It("returns the most recent row", func() {
		_, ok := metrics.Latest(nil)
		Expect(ok).To(BeFalse())

		latest, ok := metrics.Latest([]metrics.Row{{Period: "2022-12-31"}, {Period: "2023-12-31"}})
		Expect(ok).To(BeTrue())
		Expect(latest.Period).To(Equal("2023-12-31"))
	})
})

var _ = DescribeTable("Round",
	func(in, expected float64) {
		Expect(metrics.Round(in)).To(Equal(expected))
	},
	Entry("tie rounds down to even", 12.345, 12.34),
	Entry("tie rounds up to even", 12.355, 12.36),
	Entry("below tie", 12.3449, 12.34),
	Entry("above tie", 12.3451, 12.35),
	Entry("negative tie", -12.345, -12.34),
	Entry("already rounded", 40.0, 40.0),
	Entry("float noise", 40.00000000000001, 40.0),
	Entry("repeating decimal", 1.0/3.0, 0.33),
	Entry("zero", 0.0, 0.0),
)
