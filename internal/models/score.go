package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Score is a numeric grade that may be absent ("not presented").
type Score struct {
	Value   float64
	Present bool
}

// Missing is the absent score.
var Missing = Score{}

// Some wraps a present value.
func Some(v float64) Score {
	return Score{Value: v, Present: true}
}

// Get returns the value and whether it is present.
func (s Score) Get() (float64, bool) {
	return s.Value, s.Present
}

// Format renders the score with two decimals, or NP when missing.
func (s Score) Format() string {
	if !s.Present {
		return "NP"
	}
	return fmt.Sprintf("%.2f", s.Value)
}

// MarshalJSON encodes a missing score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Present {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(s.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null.
func (s *Score) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode score: %w", err)
	}
	*s = Some(v)
	return nil
}
