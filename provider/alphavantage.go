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
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvratio/cache"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/pkginfo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	AlphaVantageName    = "alphavantage"
	AlphaVantageBaseURL = "https://www.alphavantage.co/query"

	AnnualReports    = "annualReports"
	QuarterlyReports = "quarterlyReports"

	OverviewFunction = "OVERVIEW"

	// DefaultRateLimit is the number of requests per minute allowed on the
	// free tier
	DefaultRateLimit = 5
)

// messages Alpha Vantage returns with HTTP 200 instead of data
var upstreamMarkers = []string{"Error Message", "Note", "Information"}

type AlphaVantage struct {
	BaseURL string
	Reports string
	Cache   *cache.Cache
	Client  *resty.Client
	Limiter *rate.Limiter
}

type alphaVantageStatements struct {
	Symbol           string        `json:"symbol"`
	AnnualReports    []data.Fields `json:"annualReports"`
	QuarterlyReports []data.Fields `json:"quarterlyReports"`
}

type alphaVantageOverview struct {
	Symbol   string `json:"Symbol"`
	Name     string `json:"Name"`
	Sector   string `json:"Sector"`
	Industry string `json:"Industry"`
}

// NewAlphaVantage creates a client that makes at most rateLimit requests per
// minute. Responses are read from rawCache before the network is used.
func NewAlphaVantage(apiKey string, rateLimit int, reports string, rawCache *cache.Cache) *AlphaVantage {
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	if reports != QuarterlyReports {
		reports = AnnualReports
	}

	return &AlphaVantage{
		BaseURL: AlphaVantageBaseURL,
		Reports: reports,
		Cache:   rawCache,
		Client:  resty.New().SetQueryParam("apikey", apiKey).SetHeader("User-Agent", pkginfo.UserAgent()).SetTimeout(60 * time.Second),
		Limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rateLimit)), 1),
	}
}

func (alphaVantage *AlphaVantage) Name() string {
	return AlphaVantageName
}

func (alphaVantage *AlphaVantage) ConfigDescription() map[string]string {
	return map[string]string{
		"apikey":    "Enter your Alpha Vantage API key:",
		"rateLimit": "What is the maximum number of requests per minute?",
		"reports":   "Which reports should be imported (annualReports or quarterlyReports)?",
	}
}

func (alphaVantage *AlphaVantage) Description() string {
	return `Alpha Vantage provides fundamental data for US listed companies including annual and quarterly income statements, balance sheets and cash flow statements as reported in company filings.`
}

func (alphaVantage *AlphaVantage) Datasets() map[string]Dataset {
	return map[string]Dataset{
		string(data.IncomeStatement): {
			Name:          "Income Statement",
			Description:   "Annual and quarterly income statements with normalized fields mapped to GAAP and IFRS taxonomies.",
			Function:      string(data.IncomeStatement),
			StatementType: data.IncomeStatement,
		},
		string(data.BalanceSheet): {
			Name:          "Balance Sheet",
			Description:   "Annual and quarterly balance sheets.",
			Function:      string(data.BalanceSheet),
			StatementType: data.BalanceSheet,
		},
		string(data.CashFlow): {
			Name:          "Cash Flow",
			Description:   "Annual and quarterly cash flow statements.",
			Function:      string(data.CashFlow),
			StatementType: data.CashFlow,
		},
		OverviewFunction: {
			Name:        "Company Overview",
			Description: "Company name, sector and industry.",
			Function:    OverviewFunction,
		},
	}
}

// FetchStatements returns every report of the configured kind for ticker
func (alphaVantage *AlphaVantage) FetchStatements(ctx context.Context, ticker string, statementType data.StatementType) (*Statements, error) {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Str("StatementType", string(statementType)).Logger()

	body, fromCache, err := alphaVantage.query(ctx, ticker, string(statementType))
	if err != nil {
		return nil, err
	}

	var resp alphaVantageStatements
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrUpstream, ErrMalformed, err)
	}

	reports := resp.AnnualReports
	if alphaVantage.Reports == QuarterlyReports {
		reports = resp.QuarterlyReports
	}

	if reports == nil {
		logger.Warn().Str("Reports", alphaVantage.reports()).Msg("response did not include any reports")
		return nil, fmt.Errorf("%w: %w: %s %s", ErrUpstream, ErrNoReports, ticker, statementType)
	}

	statements := &Statements{
		Records:   make([]*data.StatementRecord, 0, len(reports)),
		FromCache: fromCache,
	}

	for _, report := range reports {
		fiscalDateStr := report.Str("fiscalDateEnding")
		fiscalDate, err := time.Parse(data.FiscalDateLayout, fiscalDateStr)
		if err != nil {
			logger.Warn().Err(err).Str("FiscalDateEnding", fiscalDateStr).Msg("skipping report with invalid fiscal date")
			statements.Skipped++
			continue
		}

		statements.Records = append(statements.Records, &data.StatementRecord{
			Type:             statementType,
			FiscalDateEnding: fiscalDate,
			Fields:           report,
		})
	}

	logger.Debug().Int("NumRecords", len(statements.Records)).Bool("FromCache", fromCache).Msg("fetched statements")

	return statements, nil
}

// FetchOverview returns the name, sector and industry of ticker
func (alphaVantage *AlphaVantage) FetchOverview(ctx context.Context, ticker string) (*Overview, error) {
	body, fromCache, err := alphaVantage.query(ctx, ticker, OverviewFunction)
	if err != nil {
		return nil, err
	}

	var resp alphaVantageOverview
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrUpstream, ErrMalformed, err)
	}

	return &Overview{
		Symbol:    resp.Symbol,
		Name:      cleanText(resp.Name),
		Sector:    cleanText(resp.Sector),
		Industry:  cleanText(resp.Industry),
		FromCache: fromCache,
	}, nil
}

func (alphaVantage *AlphaVantage) reports() string {
	if alphaVantage.Reports == "" {
		return AnnualReports
	}
	return alphaVantage.Reports
}

// query returns the raw response for function. Cached responses are used
// without waiting on the rate limiter.
func (alphaVantage *AlphaVantage) query(ctx context.Context, ticker, function string) ([]byte, bool, error) {
	logger := zerolog.Ctx(ctx)

	content, ok, err := alphaVantage.Cache.Get(ticker, function)
	if err != nil {
		logger.Warn().Err(err).Str("Ticker", ticker).Str("Function", function).Msg("could not read cached response")
	} else if ok {
		return content, true, nil
	}

	if err := alphaVantage.Limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	logger.Info().Str("Ticker", ticker).Str("Function", function).Msg("fetching from Alpha Vantage")

	resp, err := alphaVantage.Client.R().
		SetContext(ctx).
		SetQueryParam("function", function).
		SetQueryParam("symbol", ticker).
		Get(alphaVantage.BaseURL)
	if err != nil {
		logger.Error().Err(err).Str("Ticker", ticker).Str("Function", function).Msg("resty returned an error when querying alpha vantage")
		return nil, false, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("ResponseBody", string(resp.Body())).
			Str("Ticker", ticker).Str("Function", function).
			Msg("received an invalid status code when querying alpha vantage")
		return nil, false, fmt.Errorf("%w: %w (%d)", ErrUpstream, ErrInvalidStatusCode, resp.StatusCode())
	}

	body := resp.Body()
	if message, found, err := upstreamMessage(body); err != nil {
		return nil, false, fmt.Errorf("%w: %w: %w", ErrUpstream, ErrMalformed, err)
	} else if found {
		logger.Warn().Str("Ticker", ticker).Str("Function", function).Str("Message", message).Msg("alpha vantage refused request")
		return nil, false, fmt.Errorf("%w: %s", ErrUpstream, message)
	}

	if err := alphaVantage.Cache.Put(ticker, function, body); err != nil {
		logger.Error().Err(err).Str("Ticker", ticker).Str("Function", function).Msg("could not cache response")
	}

	return body, false, nil
}

// upstreamMessage looks for the rate limit and error messages Alpha Vantage
// sends in place of data
func upstreamMessage(body []byte) (string, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false, err
	}

	for _, key := range upstreamMarkers {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			message = string(raw)
		}
		return fmt.Sprintf("%s: %s", key, message), true, nil
	}

	return "", false, nil
}

func cleanText(val string) string {
	val = strings.TrimSpace(val)
	if val == "None" || val == "-" {
		return ""
	}
	return val
}
