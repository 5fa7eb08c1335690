package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNotANumber is returned when a Number cannot be coerced to float64.
var ErrNotANumber = errors.New("value is not a number")

// Number holds a JSON value destined for a numeric field. Clients send
// prices both as numbers and as numeric strings, so decoding never fails;
// coercion is deferred to Float64.
type Number struct {
	raw string
}

// NewNumber returns a Number wrapping the given literal.
func NewNumber(raw string) Number {
	return Number{raw: raw}
}

// UnmarshalJSON stores the raw literal, unquoting JSON strings.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.raw = strings.TrimSpace(s)
		return nil
	}
	n.raw = string(data)
	return nil
}

// MarshalJSON writes the value as a JSON number when it coerces, or as
// the original string otherwise.
func (n Number) MarshalJSON() ([]byte, error) {
	if v, err := n.Float64(); err == nil {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return json.Marshal(n.raw)
}

// Float64 coerces the value. Empty strings, booleans, objects, NaN and
// infinities are rejected.
func (n Number) Float64() (float64, error) {
	if n.raw == "" || n.raw == "null" {
		return 0, ErrNotANumber
	}
	v, err := strconv.ParseFloat(n.raw, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotANumber
	}
	return v, nil
}

// String returns the raw literal.
func (n Number) String() string {
	return n.raw
}
