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
package data

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var ErrFieldsScan = errors.New("cannot scan statement fields")

// ValueKind identifies the JSON scalar a Value was decoded from
type ValueKind uint8

const (
	NullValue ValueKind = iota
	NumberValue
	StringValue
	// OtherValue holds booleans, arrays and objects verbatim
	OtherValue
)

// FieldState describes the outcome of reading a field as a number
type FieldState uint8

const (
	Present FieldState = iota
	Absent
	Unparseable
)

func (state FieldState) String() string {
	switch state {
	case Present:
		return "present"
	case Absent:
		return "absent"
	case Unparseable:
		return "unparseable"
	default:
		return fmt.Sprintf("FieldState(%d)", uint8(state))
	}
}

// Value is a single line item as reported by the data provider. The literal
// text is kept so fields survive a round trip through the database unchanged.
type Value struct {
	Kind ValueKind
	Text string
}

// Number creates a numeric value
func Number(val float64) Value {
	return Value{Kind: NumberValue, Text: strconv.FormatFloat(val, 'f', -1, 64)}
}

// String creates a string value
func String(val string) Value {
	return Value{Kind: StringValue, Text: val}
}

// Null creates an explicit JSON null
func Null() Value {
	return Value{Kind: NullValue}
}

// Float64 interprets the value as a number. Providers frequently report
// numbers as strings, so numeric strings are accepted; placeholders such as
// "None" and non-finite numbers are Unparseable.
func (val Value) Float64() (float64, FieldState) {
	switch val.Kind {
	case NullValue:
		return 0, Absent
	case NumberValue, StringValue:
		num, err := strconv.ParseFloat(strings.TrimSpace(val.Text), 64)
		if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
			return 0, Unparseable
		}
		return num, Present
	default:
		return 0, Unparseable
	}
}

func (val Value) MarshalJSON() ([]byte, error) {
	switch val.Kind {
	case NullValue:
		return []byte("null"), nil
	case NumberValue, OtherValue:
		return []byte(val.Text), nil
	default:
		return json.Marshal(val.Text)
	}
}

func (val *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*val = Null()
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*val = String(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*val = Value{Kind: NumberValue, Text: string(b)}
	default:
		*val = Value{Kind: OtherValue, Text: string(b)}
	}
	return nil
}

// Fields maps a provider's line item names to their reported values
type Fields map[string]Value

// Lookup reads the named field as a number
func (fields Fields) Lookup(name string) (float64, FieldState) {
	val, ok := fields[name]
	if !ok {
		return 0, Absent
	}
	return val.Float64()
}

// Float returns the named field as a number with absent and unparseable
// values coerced to 0
func (fields Fields) Float(name string) float64 {
	num, _ := fields.Lookup(name)
	return num
}

// Str returns the literal text of the named field
func (fields Fields) Str(name string) string {
	return fields[name].Text
}

// Scan implements sql.Scanner for JSONB columns
func (fields *Fields) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*fields = Fields{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrFieldsScan, src)
	}

	out := make(Fields)
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: %w", ErrFieldsScan, err)
	}
	*fields = out
	return nil
}

// Value implements driver.Valuer; the encoded JSON is stored as JSONB
func (fields Fields) Value() (driver.Value, error) {
	if fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(fields)
}
