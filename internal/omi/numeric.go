package omi

import (
	"strconv"
	"strings"
)

// ParseDecimal converts an Italian-formatted numeric string to a float,
// returning nil when the value is absent or unparsable.
//
// Handled conventions:
//
//	"45,8"      → 45.8    (comma decimal separator)
//	"1.234,56"  → 1234.56 (thousands dots + comma decimal)
//	"1200"      → 1200
//	"", "NA"    → nil
//
// When a comma is present it is the decimal separator and any dots are
// thousands separators; without a comma the string is read as-is.
func ParseDecimal(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") {
		return nil
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
