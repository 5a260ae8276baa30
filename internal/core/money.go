// Package core implements the transaction ledger: normalization of raw
// storage rows, date-bucketed filtering and summary aggregation.
//
// This file contains money parsing. Amounts are held as cents to keep
// arithmetic exact; formatting is a presentation concern and lives with
// the HTTP layer.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount coerces a raw amount value into Money. Numeric values pass
// through unchanged; strings get thousands separators stripped and a
// decimal comma normalized before parsing.
func ParseAmount(v any) (Money, error) {
	switch a := v.(type) {
	case Money:
		return a, nil
	case float64:
		return moneyFromFloat(a)
	case float32:
		return moneyFromFloat(float64(a))
	case int:
		return Money{Cents: int64(a) * 100}, nil
	case int64:
		return Money{Cents: a * 100}, nil
	case string:
		return ParseAmountString(a)
	default:
		return Money{}, ErrInvalidAmount
	}
}

// ParseAmountString parses a textual amount. Both "." and "," appear in
// the wild as thousands separators and as decimal marks; when both are
// present the one occurring last is the decimal mark. A lone separator
// followed by exactly three digits is treated as a thousands group.
//
// Examples:
//
//	ParseAmountString("50000")    -> 5000000 cents
//	ParseAmountString("50.000")   -> 5000000 cents (thousands dot)
//	ParseAmountString("12,34")    -> 1234 cents    (decimal comma)
//	ParseAmountString("1.234,56") -> 123456 cents
func ParseAmountString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// The input path never produces signed amounts.
		return Money{}, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if isDecimalSeparator(s, ",") {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if !isDecimalSeparator(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, ErrInvalidAmount
	}

	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return Money{Cents: iv*100 + fracCents}, nil
}

// isDecimalSeparator reports whether the single occurrence of sep in s
// reads as a decimal mark (one or two trailing digits) rather than a
// thousands group.
func isDecimalSeparator(s, sep string) bool {
	if strings.Count(s, sep) != 1 {
		return false
	}
	tail := len(s) - strings.Index(s, sep) - 1
	return tail >= 1 && tail <= 2
}

func moneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(math.Round(f * 100))}, nil
}

// Units returns the whole-unit value for display purposes. Use cents for
// calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}
