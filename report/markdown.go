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
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/penny-vault/pvratio/metrics"
)

// Markdown renders the dashboard as a markdown document
func Markdown(dashboard Dashboard) string {
	builder := strings.Builder{}

	fmt.Fprintf(&builder, "# %s\n\n", dashboard.Title)

	if dashboard.Sector != "" || dashboard.Industry != "" {
		fmt.Fprintf(&builder, "%s\n\n", strings.Trim(dashboard.Sector+" / "+dashboard.Industry, " /"))
	}

	if dashboard.Empty {
		fmt.Fprintf(&builder, "> **Warning:** %s\n", dashboard.Warning)
		return builder.String()
	}

	fmt.Fprintf(&builder, "## Key Metrics (%s)\n\n", dashboard.LatestPeriod)
	for _, tile := range dashboard.Tiles {
		fmt.Fprintf(&builder, "  * %s: **%s**\n", tile.Label, tile.Value)
	}

	builder.WriteString("\n## Metrics\n\n")
	builder.WriteString("| Period | Gross Margin % | Operating Margin % | Net Margin % | Current Ratio | Asset Turnover | Revenue | Net Income |\n")
	builder.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, row := range dashboard.Rows {
		fmt.Fprintf(&builder, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			row.Period,
			Ratio(row.GrossMargin),
			Ratio(row.OperatingMargin),
			Ratio(row.NetMargin),
			Ratio(row.CurrentRatio),
			Ratio(row.AssetTurnover),
			Dollars(row.Revenue),
			Dollars(row.NetIncome),
		)
	}

	if metrics.Warnings(dashboard.Findings) > 0 {
		builder.WriteString("\n## Data quality\n\n")
		for _, finding := range dashboard.Findings {
			if finding.Severity != metrics.SeverityWarning {
				continue
			}
			fmt.Fprintf(&builder, "  * %s\n", finding.String())
		}
	}

	return builder.String()
}

// TileBoxes renders the key metric tiles side by side for the terminal
func TileBoxes(dashboard Dashboard) string {
	if len(dashboard.Tiles) == 0 {
		return ""
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	value := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	box := lipgloss.NewStyle().
		Width(18).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1)

	boxes := make([]string, 0, len(dashboard.Tiles))
	for _, tile := range dashboard.Tiles {
		boxes = append(boxes, box.Render(label.Render(tile.Label)+"\n"+value.Render(tile.Value)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}
