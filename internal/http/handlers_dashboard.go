package http

import (
	"log/slog"
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/services"
	"cashflow/internal/users"
)

type dashboardPage struct {
	User       users.User
	Flash      string
	Today      string
	Balance    string
	TodayIn    string
	TodayOut   string
	Categories []string
	Recent     []core.Transaction
}

const recentLimit = 5

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		// Storage trouble renders an empty ledger with a flash instead of a 500.
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		s.sessions.setFlash(sessionToken(r), "Failed to load transactions. Please try again.")
		snap = services.Snapshot{}
	}

	overall := core.Aggregate(snap.Transactions)
	today := core.Filter(snap.Transactions, core.Criteria{Kind: core.FilterToday})
	todayStats := core.Aggregate(today)

	recent := snap.Transactions
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	s.render(w, r, "home.html", dashboardPage{
		User:       user,
		Flash:      s.sessions.takeFlash(sessionToken(r)),
		Today:      core.BusinessDay(0),
		Balance:    formatRupiah(overall.Balance.Cents),
		TodayIn:    formatRupiah(todayStats.TotalIn.Cents),
		TodayOut:   formatRupiah(todayStats.TotalOut.Cents),
		Categories: snap.Categories,
		Recent:     recent,
	})
}
