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
	"errors"
	"fmt"
	"strings"

	"github.com/penny-vault/pvratio/data"
	"github.com/spf13/viper"
)

var ErrMissingConfig = errors.New("missing required configuration")

var defaultCompanies = []map[string]string{
	{"ticker": "TEL", "name": "TE Connectivity"},
	{"ticker": "ST", "name": "Sensata Technologies"},
	{"ticker": "DD", "name": "DuPont de Nemours"},
}

// configFile is the layout of $HOME/.pvratio.toml
type configFile struct {
	DB           dbConfig           `toml:"db"`
	AlphaVantage alphaVantageConfig `toml:"alphavantage"`
	Cache        cacheConfig        `toml:"cache"`
	Server       serverConfig       `toml:"server"`
	Schedule     string             `toml:"schedule"`
	Companies    []*data.Company    `toml:"companies"`
	Healthchecks healthchecksConfig `toml:"healthchecks,omitempty"`
}

type dbConfig struct {
	URL string `toml:"url"`
}

type alphaVantageConfig struct {
	APIKey    string `toml:"apikey"`
	RateLimit int    `toml:"rateLimit"`
	Reports   string `toml:"reports"`
	Overview  bool   `toml:"overview"`
}

type cacheConfig struct {
	Dir string `toml:"dir"`
}

type serverConfig struct {
	Addr string `toml:"addr"`
}

type healthchecksConfig struct {
	APIKey  string `toml:"apikey,omitempty"`
	CheckID string `toml:"checkId,omitempty"`
}

// requireConfig returns the value of key or ErrMissingConfig when it is unset
func requireConfig(key string) (string, error) {
	val := viper.GetString(key)
	if val == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingConfig, key)
	}
	return val, nil
}

// configuredCompanies returns the tracked companies. The list may be given as
// an array of {ticker, name} tables or, from the environment, as a comma
// separated list of tickers.
func configuredCompanies() ([]*data.Company, error) {
	if raw, ok := viper.Get("companies").(string); ok {
		return parseTickers(raw), nil
	}

	var companies []*data.Company
	if err := viper.UnmarshalKey("companies", &companies); err != nil {
		return nil, fmt.Errorf("read companies: %w", err)
	}

	return dedupe(companies), nil
}

// parseTickers splits a comma or space separated list of tickers
func parseTickers(raw string) []*data.Company {
	companies := make([]*data.Company, 0)
	for _, ticker := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		companies = append(companies, &data.Company{Ticker: ticker})
	}
	return dedupe(companies)
}

// selectCompanies restricts the configured companies to the requested tickers.
// Tickers that are not configured are tracked without a name.
func selectCompanies(configured []*data.Company, tickers []string) []*data.Company {
	if len(tickers) == 0 {
		return configured
	}

	byTicker := make(map[string]*data.Company, len(configured))
	for _, company := range configured {
		byTicker[company.Ticker] = company
	}

	selected := make([]*data.Company, 0, len(tickers))
	for _, ticker := range tickers {
		ticker = data.NormalizeTicker(ticker)
		if company, ok := byTicker[ticker]; ok {
			selected = append(selected, company)
			continue
		}
		selected = append(selected, &data.Company{Ticker: ticker})
	}

	return dedupe(selected)
}

func dedupe(companies []*data.Company) []*data.Company {
	seen := make(map[string]bool, len(companies))
	out := make([]*data.Company, 0, len(companies))
	for _, company := range companies {
		company.Ticker = data.NormalizeTicker(company.Ticker)
		if company.Ticker == "" || seen[company.Ticker] {
			continue
		}
		seen[company.Ticker] = true
		out = append(out, company)
	}
	return out
}

func tickersOf(companies []*data.Company) []string {
	tickers := make([]string, 0, len(companies))
	for _, company := range companies {
		tickers = append(tickers, company.Ticker)
	}
	return tickers
}
