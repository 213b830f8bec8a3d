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
package metrics

import (
	"fmt"
	"sort"

	"github.com/penny-vault/pvratio/data"
	"github.com/rs/zerolog"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

type Problem string

const (
	MissingField     Problem = "missing"
	UnparseableField Problem = "unparseable"
	ZeroRevenue      Problem = "zero-revenue"
)

// Finding describes a line item that could not be used as reported
type Finding struct {
	Period   string             `json:"period"`
	Type     data.StatementType `json:"statementType"`
	Field    string             `json:"field"`
	Problem  Problem            `json:"problem"`
	Severity Severity           `json:"severity"`
}

func (finding Finding) String() string {
	return fmt.Sprintf("%s %s %s: %s", finding.Period, finding.Type, finding.Field, finding.Problem)
}

func (finding Finding) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Period", finding.Period)
	e.Str("StatementType", string(finding.Type))
	e.Str("Field", finding.Field)
	e.Str("Problem", string(finding.Problem))
}

// Audit reports line items that Compute silently treats as 0: fields that
// are missing or unparseable, and income statements with zero revenue. A
// missing inventory is informational since many companies do not carry one.
func Audit(records []*data.StatementRecord) []Finding {
	findings := make([]Finding, 0)

	for _, record := range records {
		if record == nil {
			continue
		}

		var fields []string
		switch record.Type {
		case data.IncomeStatement:
			fields = IncomeFields
		case data.BalanceSheet:
			fields = BalanceFields
		default:
			continue
		}

		period := record.Period()
		for _, name := range fields {
			val, state := record.Fields.Lookup(name)

			severity := SeverityWarning
			if name == Inventory {
				severity = SeverityInfo
			}

			switch state {
			case data.Absent:
				findings = append(findings, Finding{Period: period, Type: record.Type, Field: name, Problem: MissingField, Severity: severity})
			case data.Unparseable:
				findings = append(findings, Finding{Period: period, Type: record.Type, Field: name, Problem: UnparseableField, Severity: severity})
			case data.Present:
				if name == TotalRevenue && val == 0 {
					findings = append(findings, Finding{Period: period, Type: record.Type, Field: name, Problem: ZeroRevenue, Severity: SeverityWarning})
				}
			}
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Field < b.Field
	})

	return findings
}

// Warnings counts findings with warning severity
func Warnings(findings []Finding) int {
	count := 0
	for _, finding := range findings {
		if finding.Severity == SeverityWarning {
			count++
		}
	}
	return count
}
