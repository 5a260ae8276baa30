package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cashflow/internal/core"
)

// formatRupiah renders cents as "Rp 1.234.567". Whole-rupiah amounts drop
// the decimal part; fractional cents keep two digits after a comma.
func formatRupiah(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100

	s := strconv.FormatInt(units, 10)
	// Insert dot separators every three digits from the right.
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "Rp " + b.String()
	if rem != 0 {
		out += fmt.Sprintf(",%02d", rem)
	}
	if neg {
		return "-" + out
	}
	return out
}

// parseCriteria builds filter criteria from query parameters. Priority:
// explicit shortcuts, then month, then single/range dates. No criteria
// means the current business day.
func parseCriteria(r *http.Request) core.Criteria {
	q := r.URL.Query()

	switch strings.TrimSpace(q.Get("filter")) {
	case "today":
		return core.Criteria{Kind: core.FilterToday}
	case "yesterday":
		return core.Criteria{Kind: core.FilterYesterday}
	case "all":
		return core.Criteria{Kind: core.FilterAll}
	}

	if month := strings.TrimSpace(q.Get("month")); month != "" {
		return core.Criteria{Kind: core.FilterMonth, Month: month}
	}

	start := strings.TrimSpace(q.Get("start_date"))
	end := strings.TrimSpace(q.Get("end_date"))
	switch {
	case start != "" && end != "":
		return core.Criteria{Kind: core.FilterRange, Start: start, End: end}
	case start != "":
		return core.Criteria{Kind: core.FilterSingle, Start: start}
	}

	if date := strings.TrimSpace(q.Get("date")); date != "" {
		return core.Criteria{Kind: core.FilterSingle, Start: date}
	}

	return core.Criteria{Kind: core.FilterToday}
}

// criteriaLabel names the filtered period for display.
func criteriaLabel(c core.Criteria) string {
	switch c.Kind {
	case core.FilterToday:
		return "Today"
	case core.FilterYesterday:
		return "Yesterday"
	case core.FilterSingle:
		return c.Start
	case core.FilterRange:
		return c.Start + " to " + c.End
	case core.FilterMonth:
		return c.Month
	default:
		return "All time"
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"rupiah": formatRupiah,
		"displayDate": func(iso string) string {
			t, err := time.Parse("2006-01-02", iso)
			if err != nil {
				return iso
			}
			return t.Format("02 Jan 2006")
		},
		"monthLabel": func(month string) string {
			t, err := time.Parse("2006-01", month)
			if err != nil {
				return month
			}
			return t.Format("January 2006")
		},
	}
}
