package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"cashflow/internal/core"
)

// handleAdd records a new transaction dated to the current business day.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse add form error", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	txType := core.TxType(sanitizeInput(r.Form.Get("type")))
	category := sanitizeInput(r.Form.Get("category"))
	description := sanitizeInput(r.Form.Get("description"))
	usage := core.Usage(sanitizeInput(r.Form.Get("usage")))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))

	amount, err := core.ParseAmountString(amountStr)
	if err != nil {
		s.flashAndBack(w, r, "Invalid amount")
		return
	}

	// The server stamps the date; clients never choose it.
	date := core.BusinessDay(0)

	// Income is always categorized and flagged the same way.
	if txType == core.TypeIn {
		category = core.IncomeCategory
		usage = core.UsageBusiness
	}
	if category == "" {
		category = core.FallbackCategory
	}

	tx := core.Transaction{
		Date:        date,
		Category:    category,
		Description: description,
		Amount:      amount,
		Type:        txType,
		Usage:       usage,
		CreatedBy:   user.Name,
	}

	ref, err := s.ledger.Add(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add transaction error", "error", err, "category", category, "amount_cents", amount.Cents)
		s.flashAndBack(w, r, "Could not save transaction")
		return
	}

	slog.InfoContext(r.Context(), "Transaction added", "row_ref", ref, "by", user.Name)
	s.flashAndBack(w, r, "Transaction saved")
}

// handleEdit rewrites the editable fields of an existing row. Date and
// type are fixed at creation.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse edit form error", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	rowRef := sanitizeInput(r.Form.Get("row_ref"))
	if rowRef == "" {
		s.flashAndBack(w, r, "Missing transaction reference")
		return
	}

	amount, err := core.ParseAmountString(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		s.flashAndBack(w, r, "Invalid amount")
		return
	}

	update := core.TransactionUpdate{
		Category:    sanitizeInput(r.Form.Get("category")),
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      amount,
		Usage:       core.Usage(sanitizeInput(r.Form.Get("usage"))),
		EditedBy:    user.Name,
	}

	if err := s.ledger.Edit(r.Context(), rowRef, update); err != nil {
		slog.ErrorContext(r.Context(), "Edit transaction error", "error", err, "row_ref", rowRef)
		s.flashAndBack(w, r, "Could not update transaction")
		return
	}

	slog.InfoContext(r.Context(), "Transaction updated", "row_ref", rowRef, "by", user.Name)
	s.flashAndBack(w, r, "Transaction updated")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id := r.PathValue("id")
	if err := s.ledger.Remove(r.Context(), id, user.Name); err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction error", "error", err, "id", id)
		s.flashAndBack(w, r, "Could not delete transaction")
		return
	}

	slog.InfoContext(r.Context(), "Transaction deleted", "id", id, "by", user.Name)
	s.flashAndBack(w, r, "Transaction deleted")
}

// flashAndBack stores a flash message and redirects to the referring
// page, defaulting to the dashboard.
func (s *Server) flashAndBack(w http.ResponseWriter, r *http.Request, msg string) {
	if token := sessionToken(r); token != "" {
		s.sessions.setFlash(token, msg)
	}
	target := "/"
	// Only same-site paths; a foreign Referer falls back to the dashboard.
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) && strings.HasPrefix(u.Path, "/") {
			target = u.Path
			if u.RawQuery != "" {
				target += "?" + u.RawQuery
			}
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
