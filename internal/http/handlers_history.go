package http

import (
	"log/slog"
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/services"
	"cashflow/internal/users"
)

type historyPage struct {
	User         users.User
	Flash        string
	Transactions []core.Transaction
	Categories   []string
	Months       []string
	Filter       string
	StartDate    string
	EndDate      string
	Month        string
	Total        string
}

// handleData renders the filterable transaction history.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
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
	s.render(w, r, "data.html", historyPage{
		User:         user,
		Flash:        s.sessions.takeFlash(sessionToken(r)),
		Transactions: filtered,
		Categories:   snap.Categories,
		Months:       core.AvailableMonths(snap.Transactions),
		Filter:       q.Get("filter"),
		StartDate:    q.Get("start_date"),
		EndDate:      q.Get("end_date"),
		Month:        q.Get("month"),
		Total:        formatRupiah(stats.Balance.Cents),
	})
}
