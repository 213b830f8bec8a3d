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
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Dollars formats a whole-dollar amount with thousands separators: $1,234
func Dollars(val float64) string {
	dollars := int64(math.Round(val))
	if dollars < 0 {
		return printer.Sprintf("-$%d", -dollars)
	}
	return printer.Sprintf("$%d", dollars)
}

// Percent formats a percentage with two decimals: 40.00%
func Percent(val float64) string {
	return printer.Sprintf("%.2f%%", val)
}

// Ratio formats a ratio with two decimals: 2.00
func Ratio(val float64) string {
	return printer.Sprintf("%.2f", val)
}
