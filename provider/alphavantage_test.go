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
package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/time/rate"

	"github.com/penny-vault/pvratio/cache"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/provider"
)

const incomeResponse = `{
	"symbol": "TEL",
	"annualReports": [
		{"fiscalDateEnding": "2023-09-30", "reportedCurrency": "USD", "totalRevenue": "16034000000", "grossProfit": "5288000000", "inventory": "None"},
		{"fiscalDateEnding": "2022-09-30", "reportedCurrency": "USD", "totalRevenue": "16281000000", "grossProfit": "5109000000"},
		{"fiscalDateEnding": "None", "totalRevenue": "1"}
	],
	"quarterlyReports": [
		{"fiscalDateEnding": "2023-12-31", "totalRevenue": "3834000000"}
	]
}`

var _ = Describe("AlphaVantage", func() {
	var (
		ctx          context.Context
		server       *httptest.Server
		numRequests  atomic.Int32
		responseBody string
		statusCode   int
		cacheDir     string
		alphaVantage *provider.AlphaVantage
	)

	BeforeEach(func() {
		ctx = context.Background()
		numRequests.Store(0)
		responseBody = incomeResponse
		statusCode = http.StatusOK

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			numRequests.Add(1)
			defer GinkgoRecover()
			Expect(r.URL.Query().Get("apikey")).To(Equal("demo"))
			Expect(r.URL.Query().Get("symbol")).To(Equal("TEL"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			_, _ = w.Write([]byte(responseBody))
		}))

		cacheDir = GinkgoT().TempDir()
		alphaVantage = provider.NewAlphaVantage("demo", 5, "", cache.New(cacheDir))
		alphaVantage.BaseURL = server.URL
		alphaVantage.Limiter = rate.NewLimiter(rate.Inf, 1)
	})

	AfterEach(func() {
		server.Close()
	})

	It("describes its datasets", func() {
		Expect(alphaVantage.Name()).To(Equal("alphavantage"))
		Expect(alphaVantage.Datasets()).To(HaveKey("INCOME_STATEMENT"))
		Expect(alphaVantage.Datasets()).To(HaveKey("BALANCE_SHEET"))
		Expect(alphaVantage.Datasets()).To(HaveKey("CASH_FLOW"))
		Expect(alphaVantage.Datasets()).To(HaveKey("OVERVIEW"))
		Expect(alphaVantage.ConfigDescription()).To(HaveKey("apikey"))
	})

	It("parses annual reports and skips reports without a fiscal date", func() {
		statements, err := alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(statements.FromCache).To(BeFalse())
		Expect(statements.Skipped).To(Equal(1))
		Expect(statements.Records).To(HaveLen(2))

		first := statements.Records[0]
		Expect(first.Type).To(Equal(data.IncomeStatement))
		Expect(first.Period()).To(Equal("2023-09-30"))
		Expect(first.Fields.Float("totalRevenue")).To(Equal(16034000000.0))
		Expect(first.Fields.Str("reportedCurrency")).To(Equal("USD"))

		_, state := first.Fields.Lookup("inventory")
		Expect(state).To(Equal(data.Unparseable))
	})

	It("reads quarterly reports when configured", func() {
		alphaVantage.Reports = provider.QuarterlyReports
		statements, err := alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(statements.Records).To(HaveLen(1))
		Expect(statements.Records[0].Period()).To(Equal("2023-12-31"))
	})

	It("serves repeated requests from the cache", func() {
		_, err := alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(cacheDir, "TEL_INCOME_STATEMENT.json")).To(BeAnExistingFile())

		statements, err := alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(statements.FromCache).To(BeTrue())
		Expect(statements.Records).To(HaveLen(2))
		Expect(numRequests.Load()).To(Equal(int32(1)))
	})

	It("does not wait on the rate limiter for cached responses", func() {
		Expect(os.WriteFile(filepath.Join(cacheDir, "TEL_BALANCE_SHEET.json"),
			[]byte(`{"symbol":"TEL","annualReports":[{"fiscalDateEnding":"2023-09-30","totalAssets":"1"}]}`), 0o644)).To(Succeed())

		alphaVantage.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

		statements, err := alphaVantage.FetchStatements(ctx, "TEL", data.BalanceSheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(statements.FromCache).To(BeTrue())
		Expect(alphaVantage.Limiter.Tokens()).To(BeNumerically("~", 1, 0.01))
		Expect(numRequests.Load()).To(Equal(int32(0)))

		_, err = alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).NotTo(HaveOccurred())
		Expect(alphaVantage.Limiter.Tokens()).To(BeNumerically("<", 0.5))
	})

	DescribeTable("never caches upstream messages",
		func(body string) {
			responseBody = body

			_, err := alphaVantage.FetchStatements(ctx, "TEL", data.CashFlow)
			Expect(err).To(MatchError(provider.ErrUpstream))
			Expect(filepath.Join(cacheDir, "TEL_CASH_FLOW.json")).NotTo(BeAnExistingFile())
		},
		Entry("rate limit note", `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`),
		Entry("information", `{"Information": "The **demo** API key is for demo purposes only."}`),
		Entry("error message", `{"Error Message": "Invalid API call."}`),
	)

	It("reports the upstream message", func() {
		responseBody = `{"Error Message": "Invalid API call."}`
		_, err := alphaVantage.FetchStatements(ctx, "TEL", data.CashFlow)
		Expect(err).To(MatchError(ContainSubstring("Error Message: Invalid API call.")))
	})

	It("treats HTTP errors as upstream errors", func() {
		statusCode = http.StatusBadGateway
		responseBody = "bad gateway"

		_, err := alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).To(MatchError(provider.ErrUpstream))
		Expect(err).To(MatchError(provider.ErrInvalidStatusCode))
	})

	It("treats a response without reports as an upstream error", func() {
		responseBody = `{"symbol": "TEL"}`

		_, err := alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).To(MatchError(provider.ErrUpstream))
		Expect(err).To(MatchError(provider.ErrNoReports))
	})

	It("treats invalid JSON as an upstream error", func() {
		responseBody = "<html>maintenance</html>"

		_, err := alphaVantage.FetchStatements(ctx, "TEL", data.IncomeStatement)
		Expect(err).To(MatchError(provider.ErrMalformed))
		Expect(filepath.Join(cacheDir, "TEL_INCOME_STATEMENT.json")).NotTo(BeAnExistingFile())
	})

	It("fetches the company overview", func() {
		responseBody = `{"Symbol": "TEL", "Name": "TE Connectivity Ltd", "Sector": "TECHNOLOGY", "Industry": "None"}`

		overview, err := alphaVantage.FetchOverview(ctx, "TEL")
		Expect(err).NotTo(HaveOccurred())
		Expect(overview.Name).To(Equal("TE Connectivity Ltd"))
		Expect(overview.Sector).To(Equal("TECHNOLOGY"))
		Expect(overview.Industry).To(BeEmpty())
	})

	It("is registered for the providers command", func() {
		Expect(provider.Map).To(HaveKey("alphavantage"))
	})
})
