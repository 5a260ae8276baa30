package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// The business day boundary is a fixed UTC+8 offset from real UTC time,
// matching the insert path. It is a hard business rule, not configurable.
var businessZone = time.FixedZone("UTC+8", 8*60*60)

// sheetEpoch is the spreadsheet serial-date origin: serial N means N days
// after 1899-12-30.
var sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// timeNow is swapped out in tests.
var timeNow = time.Now

// BusinessDay returns the current business day shifted by offsetDays,
// formatted as YYYY-MM-DD.
func BusinessDay(offsetDays int) string {
	return timeNow().UTC().In(businessZone).AddDate(0, 0, offsetDays).Format("2006-01-02")
}

type FilterKind string

const (
	FilterToday     FilterKind = "today"
	FilterYesterday FilterKind = "yesterday"
	FilterSingle    FilterKind = "single"
	FilterRange     FilterKind = "range"
	FilterMonth     FilterKind = "month"
	FilterAll       FilterKind = "all"
)

// Criteria selects a date bucket. Start/End are YYYY-MM-DD and apply to
// single and range; Month is YYYY-MM.
type Criteria struct {
	Kind  FilterKind
	Start string
	End   string
	Month string
}

// Normalize converts raw storage rows into a normalized, date-descending
// transaction list. Rows whose date or amount cannot be parsed in any
// recognized form are dropped, not reported. Ties on equal dates keep the
// adapter-delivered order (storage order descending), which makes
// Normalize idempotent on already-normalized input.
func Normalize(raw []RawRecord) []Transaction {
	out := make([]Transaction, 0, len(raw))
	for _, r := range raw {
		date, err := ParseDate(r.Date)
		if err != nil {
			continue
		}
		amount, err := ParseAmount(r.Amount)
		if err != nil {
			continue
		}
		typ := TxType(strings.TrimSpace(r.Type))
		if !typ.Valid() {
			continue
		}
		out = append(out, Transaction{
			ID:          r.ID,
			RowRef:      r.RowRef,
			Date:        date,
			Category:    coerceText(r.Category, FallbackCategory),
			Description: coerceText(r.Description, ""),
			Amount:      amount,
			Type:        typ,
			Usage:       Usage(strings.TrimSpace(r.Usage)),
			CreatedBy:   strings.TrimSpace(r.CreatedBy),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// ParseDate normalizes a raw date value to YYYY-MM-DD. Accepted shapes:
// native time.Time, ISO and locale-formatted strings, and numeric
// day-count offsets from the spreadsheet epoch (fractional part ignored).
func ParseDate(v any) (string, error) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return "", ErrInvalidDate
		}
		return d.Format("2006-01-02"), nil
	case string:
		return parseDateString(d)
	case float64:
		return serialDate(int(d))
	case float32:
		return serialDate(int(d))
	case int:
		return serialDate(d)
	case int64:
		return serialDate(int(d))
	default:
		return "", ErrInvalidDate
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
}

func parseDateString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	// Spreadsheet serials occasionally arrive as digit strings.
	if n, err := strconv.Atoi(s); err == nil {
		return serialDate(n)
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func serialDate(days int) (string, error) {
	if days <= 0 {
		return "", ErrInvalidDate
	}
	return sheetEpoch.AddDate(0, 0, days).Format("2006-01-02"), nil
}

// coerceText turns a raw category/description value into text. Numeric
// and empty values become the fallback label rather than failing the row.
func coerceText(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// Filter returns the transactions matching c, preserving input order.
// Partially-specified criteria (a range missing an end date, a month
// filter without a month) match nothing rather than erroring.
func Filter(txs []Transaction, c Criteria) []Transaction {
	today := BusinessDay(0)
	yesterday := BusinessDay(-1)

	filtered := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Date == "" {
			continue
		}
		switch c.Kind {
		case FilterToday:
			if t.Date == today {
				filtered = append(filtered, t)
			}
		case FilterYesterday:
			if t.Date == yesterday {
				filtered = append(filtered, t)
			}
		case FilterSingle:
			if c.Start != "" && t.Date == c.Start {
				filtered = append(filtered, t)
			}
		case FilterRange:
			if c.Start != "" && c.End != "" && c.Start <= t.Date && t.Date <= c.End {
				filtered = append(filtered, t)
			}
		case FilterMonth:
			if c.Month != "" && strings.HasPrefix(t.Date, c.Month) {
				filtered = append(filtered, t)
			}
		case FilterAll:
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// Aggregate computes the summary totals over txs. Empty input yields
// all-zero stats.
func Aggregate(txs []Transaction) Stats {
	var s Stats
	for _, t := range txs {
		switch t.Type {
		case TypeIn:
			s.TotalIn.Cents += t.Amount.Cents
		case TypeOut:
			s.TotalOut.Cents += t.Amount.Cents
			switch t.Usage {
			case UsagePersonal:
				s.OutPersonal.Cents += t.Amount.Cents
			case UsageBusiness:
				s.OutBusiness.Cents += t.Amount.Cents
			}
		}
	}
	s.Balance.Cents = s.TotalIn.Cents - s.TotalOut.Cents
	return s
}

// AvailableMonths returns the distinct YYYY-MM prefixes present in txs,
// sorted descending, for populating a month-selection control.
func AvailableMonths(txs []Transaction) []string {
	seen := map[string]struct{}{}
	var months []string
	for _, t := range txs {
		if len(t.Date) < 7 {
			continue
		}
		ym := t.Date[:7]
		if _, ok := seen[ym]; ok {
			continue
		}
		seen[ym] = struct{}{}
		months = append(months, ym)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}
