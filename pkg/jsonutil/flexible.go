// Package jsonutil smooths over the loose typing of LLM JSON output. Models
// asked for string fields occasionally answer with bare numbers or booleans;
// parsing keeps those fields raw and renders them here instead of failing.
package jsonutil

import (
	"encoding/json"
	"strconv"
)

// FlexibleStringValue renders a raw JSON value as a string. Strings unquote,
// integers and floats format without an exponent where possible, booleans
// become "true"/"false", and null or absent values become the empty string.
// Anything else (objects, arrays) falls back to its raw text.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'g', -1, 64)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}

	return string(raw)
}
