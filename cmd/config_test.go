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
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/library"
	"github.com/penny-vault/pvratio/provider"
)

type fakeLoader struct {
	company *data.Company
	records []*data.StatementRecord
	err     error
}

func (loader *fakeLoader) GetStatements(ctx context.Context, ticker string) (*data.Company, []*data.StatementRecord, error) {
	return loader.company, loader.records, loader.err
}

func statementOn(statementType data.StatementType, period string, fields data.Fields) *data.StatementRecord {
	date, err := time.Parse(data.FiscalDateLayout, period)
	Expect(err).NotTo(HaveOccurred())
	return &data.StatementRecord{Type: statementType, FiscalDateEnding: date, Fields: fields}
}

var _ = Describe("Configuration", func() {
	BeforeEach(func() {
		viper.Reset()
		setDefaults()
	})

	AfterEach(func() {
		viper.Reset()
	})

	Describe("requireConfig", func() {
		It("wraps ErrMissingConfig with the key name", func() {
			_, err := requireConfig("alphavantage.apikey")
			Expect(errors.Is(err, ErrMissingConfig)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("alphavantage.apikey"))
		})

		It("returns set values", func() {
			viper.Set("db.url", "postgres://localhost/pvratio")
			val, err := requireConfig("db.url")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("postgres://localhost/pvratio"))
		})
	})

	Describe("configuredCompanies", func() {
		It("defaults to TEL, ST and DD", func() {
			companies, err := configuredCompanies()
			Expect(err).NotTo(HaveOccurred())
			Expect(tickersOf(companies)).To(Equal([]string{"TEL", "ST", "DD"}))
			Expect(companies[0].Name).To(Equal("TE Connectivity"))
		})

		It("accepts a comma separated list", func() {
			viper.Set("companies", "aapl, msft,AAPL")
			companies, err := configuredCompanies()
			Expect(err).NotTo(HaveOccurred())
			Expect(tickersOf(companies)).To(Equal([]string{"AAPL", "MSFT"}))
		})

		It("reads tables of ticker and name", func() {
			viper.Set("companies", []map[string]any{
				{"ticker": "ibm", "name": "International Business Machines"},
			})
			companies, err := configuredCompanies()
			Expect(err).NotTo(HaveOccurred())
			Expect(companies).To(HaveLen(1))
			Expect(companies[0].Ticker).To(Equal("IBM"))
			Expect(companies[0].Name).To(Equal("International Business Machines"))
		})
	})

	Describe("selectCompanies", func() {
		It("keeps configured names and allows untracked tickers", func() {
			configured := []*data.Company{{Ticker: "TEL", Name: "TE Connectivity"}, {Ticker: "DD"}}
			selected := selectCompanies(configured, []string{"tel", "xyz"})
			Expect(tickersOf(selected)).To(Equal([]string{"TEL", "XYZ"}))
			Expect(selected[0].Name).To(Equal("TE Connectivity"))
		})

		It("returns everything when no tickers are requested", func() {
			configured := []*data.Company{{Ticker: "TEL"}, {Ticker: "DD"}}
			Expect(selectCompanies(configured, nil)).To(Equal(configured))
		})
	})
})

var _ = Describe("Command output", func() {
	It("summarizes a run for healthcheck pings", func() {
		start := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
		summary := &data.RunSummary{
			ID:           uuid.MustParse("8f8e1c1a-8c8a-4c43-9a51-7fc0e5d3b9a1"),
			StartTime:    start,
			EndTime:      start.Add(95 * time.Second),
			NumCompanies: 3,
			NumInserted:  12,
		}

		body := runReport(summary, nil)
		Expect(body).To(ContainSubstring("run 8f8e1c1a-8c8a-4c43-9a51-7fc0e5d3b9a1 took 1 minute 35 seconds"))
		Expect(body).To(ContainSubstring("inserted: 12"))
		Expect(body).NotTo(ContainSubstring("error:"))

		Expect(runReport(summary, errors.New("boom"))).To(ContainSubstring("error: boom"))
		Expect(runReport(nil, errors.New("boom"))).To(Equal("run failed: boom"))
	})

	It("lists configured companies before untracked ones", func() {
		first := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
		last := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
		stats := []*library.CompanyStats{
			{Ticker: "AAPL", Name: "Apple", NumStatements: 3, FirstPeriod: first, LastPeriod: last},
			{Ticker: "TEL", Name: "TE Connectivity Ltd", NumStatements: 1200, FirstPeriod: first, LastPeriod: last},
		}

		table := companiesTable([]*data.Company{{Ticker: "TEL", Name: "TE Connectivity"}, {Ticker: "DD"}}, stats)
		Expect(table).To(ContainSubstring("| TEL | TE Connectivity | yes | 1,200 | 2020-12-31 | 2023-12-31 |"))
		Expect(table).To(ContainSubstring("| DD |  | yes | 0 | - | - |"))
		Expect(table).To(ContainSubstring("| AAPL | Apple | no | 3 |"))
	})

	It("documents provider datasets and settings", func() {
		doc := providerDoc(provider.Map[provider.AlphaVantageName])
		Expect(doc).To(HavePrefix("# alphavantage\n"))
		Expect(doc).To(ContainSubstring("(`INCOME_STATEMENT`)"))
		Expect(doc).To(ContainSubstring("- `alphavantage.apikey`:"))
	})

	It("summarizes the saved configuration", func() {
		out := initSummary(configFile{
			AlphaVantage: alphaVantageConfig{Reports: provider.AnnualReports},
			Schedule:     "0 6 1 * *",
			Companies:    []*data.Company{{Ticker: "TEL", Name: "TE Connectivity"}},
		}, "/home/user/.pvratio.toml")
		Expect(out).To(ContainSubstring("TE Connectivity (TEL)"))
		Expect(out).To(ContainSubstring("Monitoring: disabled"))
	})
})

var _ = Describe("loadDashboard", func() {
	It("warns when nothing is stored", func() {
		dashboard, err := loadDashboard(context.Background(), &fakeLoader{}, "tel")
		Expect(err).NotTo(HaveOccurred())
		Expect(dashboard.Ticker).To(Equal("TEL"))
		Expect(dashboard.Empty).To(BeTrue())
	})

	It("computes metrics from stored statements", func() {
		loader := &fakeLoader{
			company: &data.Company{Ticker: "TEL", Name: "TE Connectivity"},
			records: []*data.StatementRecord{
				statementOn(data.IncomeStatement, "2023-09-30", data.Fields{
					"totalRevenue":    data.Number(1000),
					"grossProfit":     data.Number(400),
					"operatingIncome": data.Number(150),
					"netIncome":       data.Number(100),
				}),
				statementOn(data.BalanceSheet, "2023-09-30", data.Fields{
					"totalCurrentAssets":      data.Number(600),
					"totalCurrentLiabilities": data.Number(300),
					"totalAssets":             data.Number(2000),
				}),
			},
		}

		dashboard, err := loadDashboard(context.Background(), loader, "TEL")
		Expect(err).NotTo(HaveOccurred())
		Expect(dashboard.Empty).To(BeFalse())
		Expect(dashboard.Rows).To(HaveLen(1))
		Expect(dashboard.Rows[0].GrossMargin).To(Equal(40.0))
		Expect(dashboard.Rows[0].CurrentRatio).To(Equal(2.0))
	})

	It("returns store errors", func() {
		_, err := loadDashboard(context.Background(), &fakeLoader{err: errors.New("down")}, "TEL")
		Expect(err).To(MatchError("down"))
	})
})
