package convert

// coerce.go turns raw cell text into typed values. Cell text arrives the
// way spreadsheet users wrote it: currency symbols, thousands separators,
// accounting-style negatives, assorted date formats.

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates a string after cleanup: integers, decimals and
// scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ISO and unambiguous layouts first; day-first layouts as a fallback.
// Month-first layouts are deliberately absent: "03/04/2025" parses
// day-first, and anything invalid either way (like "32/13/2024") fails.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2/1/2006",
	"02/01/2006",
	"2-1-2006",
	"02-01-2006",
	"2.1.2006",
	"02.01.2006",
}

// ParseDecimal parses spreadsheet numeric text. It strips currency symbols
// and thousands separators and honors accounting negatives "(123.45)".
func ParseDecimal(s string) (decimal.Decimal, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty numeric value")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("%q is not a number", orig)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q is not a number", orig)
	}
	return d, nil
}

// ParsePercent parses percent cell text, given in percentage points, to
// its decimal ratio: "25%" and "25" both become 0.25.
func ParsePercent(s string) (decimal.Decimal, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Div(decimal.NewFromInt(100)), nil
}

// ParseBool parses boolean cell text. The accepted vocabulary is exactly
// true/false/yes/no, case-insensitive; anything else is an error rather
// than a guess.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a boolean (expected true/false/yes/no)", s)
	}
}

// ParseDate parses date cell text, trying ISO layouts first and day-first
// layouts as a fallback.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognized date", s)
}
