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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/metrics"
)

var _ = Describe("Audit", func() {
	It("reports nothing for complete statements", func() {
		findings := metrics.Audit([]*data.StatementRecord{
			income("2023-12-31", 1000, 400, 200, 100),
			balance("2023-12-31", 500, 250, 2000),
		})
		Expect(findings).NotTo(BeNil())
		Expect(findings).To(BeEmpty())
	})

	It("reports missing and unparseable line items in order", func() {
		findings := metrics.Audit([]*data.StatementRecord{
			balance("2023-12-31", "None", 250, nil),
			income("2022-12-31", 1000, "", 200, 100),
		})

		Expect(findings).To(Equal([]metrics.Finding{
			{Period: "2022-12-31", Type: data.IncomeStatement, Field: "grossProfit", Problem: metrics.UnparseableField, Severity: metrics.SeverityWarning},
			{Period: "2023-12-31", Type: data.BalanceSheet, Field: "totalAssets", Problem: metrics.MissingField, Severity: metrics.SeverityWarning},
			{Period: "2023-12-31", Type: data.BalanceSheet, Field: "totalCurrentAssets", Problem: metrics.UnparseableField, Severity: metrics.SeverityWarning},
		}))
		Expect(metrics.Warnings(findings)).To(Equal(3))
	})

	It("treats a missing inventory as informational", func() {
		sheet := statement(data.BalanceSheet, "2023-12-31", map[string]any{
			"totalCurrentAssets":      500,
			"totalCurrentLiabilities": 250,
			"totalAssets":             2000,
		})

		findings := metrics.Audit([]*data.StatementRecord{sheet})
		Expect(findings).To(HaveLen(1))
		Expect(findings[0].Field).To(Equal("inventory"))
		Expect(findings[0].Severity).To(Equal(metrics.SeverityInfo))
		Expect(metrics.Warnings(findings)).To(Equal(0))
	})

	It("flags zero revenue", func() {
		findings := metrics.Audit([]*data.StatementRecord{income("2023-12-31", 0, 0, 0, 0)})
		Expect(findings).To(ConsistOf(metrics.Finding{
			Period:   "2023-12-31",
			Type:     data.IncomeStatement,
			Field:    "totalRevenue",
			Problem:  metrics.ZeroRevenue,
			Severity: metrics.SeverityWarning,
		}))
		Expect(findings[0].String()).To(Equal("2023-12-31 INCOME_STATEMENT totalRevenue: zero-revenue"))
	})

	It("does not change computed metrics", func() {
		records := []*data.StatementRecord{
			income("2023-12-31", 1000, "None", 200, 100),
			balance("2023-12-31", 500, 250, 2000),
		}
		before := metrics.Compute(records)
		metrics.Audit(records)
		Expect(metrics.Compute(records)).To(Equal(before))
	})

	It("ignores cash flow statements", func() {
		findings := metrics.Audit([]*data.StatementRecord{
			statement(data.CashFlow, "2023-12-31", map[string]any{}),
		})
		Expect(findings).To(BeEmpty())
	})
})
