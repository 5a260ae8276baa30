package http

import (
	"log/slog"
	"net/http"
	"sort"

	"cashflow/internal/core"
	"cashflow/internal/services"
	"cashflow/internal/users"
)

type categoryRow struct {
	Name   string
	Amount string
	Width  int
}

type statsPage struct {
	User        users.User
	Flash       string
	Label       string
	Months      []string
	Filter      string
	Month       string
	StartDate   string
	EndDate     string
	Balance     string
	TotalIn     string
	TotalOut    string
	OutPersonal string
	OutBusiness string
	ByCategory  []categoryRow
	Count       int
}

// handleStats renders period statistics with the same filters as the
// history page: shortcuts first, then month, then date range, default
// today.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		s.sessions.setFlash(sessionToken(r), "Failed to load transactions. Please try again.")
		snap = services.Snapshot{}
	}

	crit := parseCriteria(r)
	filtered := core.Filter(snap.Transactions, crit)
	stats := core.Aggregate(filtered)

	q := r.URL.Query()
	s.render(w, r, "stats.html", statsPage{
		User:        user,
		Flash:       s.sessions.takeFlash(sessionToken(r)),
		Label:       criteriaLabel(crit),
		Months:      core.AvailableMonths(snap.Transactions),
		Filter:      q.Get("filter"),
		Month:       q.Get("month"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		Balance:     formatRupiah(stats.Balance.Cents),
		TotalIn:     formatRupiah(stats.TotalIn.Cents),
		TotalOut:    formatRupiah(stats.TotalOut.Cents),
		OutPersonal: formatRupiah(stats.OutPersonal.Cents),
		OutBusiness: formatRupiah(stats.OutBusiness.Cents),
		ByCategory:  categoryBreakdown(filtered),
		Count:       len(filtered),
	})
}

// categoryBreakdown sums expenses per category, largest first, with bar
// widths scaled against the top category.
func categoryBreakdown(txs []core.Transaction) []categoryRow {
	sums := map[string]int64{}
	for _, tx := range txs {
		if tx.Type != core.TypeOut {
			continue
		}
		sums[tx.Category] += tx.Amount.Cents
	}
	if len(sums) == 0 {
		return nil
	}

	type entry struct {
		name  string
		cents int64
	}
	entries := make([]entry, 0, len(sums))
	var maxCents int64
	for name, cents := range sums {
		entries = append(entries, entry{name, cents})
		if cents > maxCents {
			maxCents = cents
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].cents != entries[j].cents {
			return entries[i].cents > entries[j].cents
		}
		return entries[i].name < entries[j].name
	})

	rows := make([]categoryRow, 0, len(entries))
	for _, e := range entries {
		width := 0
		if maxCents > 0 && e.cents > 0 {
			width = int((e.cents*100 + maxCents/2) / maxCents)
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		rows = append(rows, categoryRow{Name: e.name, Amount: formatRupiah(e.cents), Width: width})
	}
	return rows
}
