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

// Package report builds the view model shared by the terminal report and the
// web dashboard.
package report

import (
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/metrics"
)

// NoDataWarning is shown when a company has no computable periods
const NoDataWarning = "No data found. Please run the ETL pipeline first."

type Tile struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Series is one line or set of bars in a chart. Axis is "y" or "y2".
type Series struct {
	Name   string    `json:"name"`
	Kind   string    `json:"kind"`
	Axis   string    `json:"axis"`
	Values []float64 `json:"values"`
}

type Chart struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

type Dashboard struct {
	Ticker   string `json:"ticker"`
	Title    string `json:"title"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`

	Empty   bool   `json:"empty"`
	Warning string `json:"warning,omitempty"`

	LatestPeriod string `json:"latestPeriod,omitempty"`
	Tiles        []Tile  `json:"tiles"`
	Charts       []Chart `json:"charts"`

	Rows     []metrics.Row     `json:"rows"`
	Findings []metrics.Finding `json:"findings"`
}

// Build assembles the dashboard for a company. A nil company or an empty set
// of rows yields an empty dashboard carrying NoDataWarning.
func Build(ticker string, company *data.Company, rows []metrics.Row, findings []metrics.Finding) Dashboard {
	dashboard := Dashboard{
		Ticker:   data.NormalizeTicker(ticker),
		Title:    data.NormalizeTicker(ticker),
		Tiles:    []Tile{},
		Charts:   []Chart{},
		Rows:     []metrics.Row{},
		Findings: []metrics.Finding{},
	}

	if company != nil {
		dashboard.Ticker = company.Ticker
		dashboard.Title = company.DisplayName()
		dashboard.Sector = company.Sector.ValueOrZero()
		dashboard.Industry = company.Industry.ValueOrZero()
	}

	if findings != nil {
		dashboard.Findings = findings
	}

	latest, ok := metrics.Latest(rows)
	if company == nil || !ok {
		dashboard.Empty = true
		dashboard.Warning = NoDataWarning
		return dashboard
	}

	dashboard.Rows = rows
	dashboard.LatestPeriod = latest.Period
	dashboard.Tiles = []Tile{
		{Label: "Revenue", Value: Dollars(latest.Revenue)},
		{Label: "Gross Margin", Value: Percent(latest.GrossMargin)},
		{Label: "Net Margin", Value: Percent(latest.NetMargin)},
		{Label: "Current Ratio", Value: Ratio(latest.CurrentRatio)},
	}

	labels := make([]string, len(rows))
	grossMargin := make([]float64, len(rows))
	operatingMargin := make([]float64, len(rows))
	netMargin := make([]float64, len(rows))
	revenue := make([]float64, len(rows))
	currentRatio := make([]float64, len(rows))
	assetTurnover := make([]float64, len(rows))

	for idx, row := range rows {
		labels[idx] = row.Period
		grossMargin[idx] = row.GrossMargin
		operatingMargin[idx] = row.OperatingMargin
		netMargin[idx] = row.NetMargin
		revenue[idx] = row.Revenue
		currentRatio[idx] = row.CurrentRatio
		assetTurnover[idx] = row.AssetTurnover
	}

	dashboard.Charts = []Chart{
		{
			ID:     "margins",
			Title:  "Margin Analysis",
			Labels: labels,
			Series: []Series{
				{Name: "Gross Margin %", Kind: "line", Axis: "y", Values: grossMargin},
				{Name: "Operating Margin %", Kind: "line", Axis: "y", Values: operatingMargin},
				{Name: "Net Margin %", Kind: "line", Axis: "y", Values: netMargin},
			},
		},
		{
			ID:     "revenue",
			Title:  "Annual Revenue",
			Labels: labels,
			Series: []Series{
				{Name: "Revenue", Kind: "bar", Axis: "y", Values: revenue},
			},
		},
		{
			ID:     "efficiency",
			Title:  "Current Ratio vs Asset Turnover",
			Labels: labels,
			Series: []Series{
				{Name: "Current Ratio", Kind: "bar", Axis: "y", Values: currentRatio},
				{Name: "Asset Turnover", Kind: "line", Axis: "y2", Values: assetTurnover},
			},
		},
	}

	return dashboard
}
