// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides lenient conversions for loosely typed upstream data.

Catalog providers sometimes send counts and years as JSON numbers and
sometimes as strings; the helpers here accept either and fall back to a
caller-chosen default instead of failing the whole payload.
*/
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToIntD converts a string to an int, returning def if parsing fails or the string is empty.
func ToIntD(str string, def int) int {
	str = strings.TrimSpace(str)
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(str); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(str, 64); err == nil {
		return int(f)
	}

	return def
}

// FlexString is a JSON value that may arrive as a string, a number or null.
// It always decodes to its textual form; null decodes to "".
type FlexString string

// UnmarshalJSON implements [json.Unmarshaler].
func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*f = FlexString(number.String())
	return nil
}

// String returns the trimmed textual form.
func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// Int returns the value as an int, or def when it is empty or not numeric.
func (f FlexString) Int(def int) int {
	return ToIntD(string(f), def)
}
