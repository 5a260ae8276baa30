package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/services"
	"cashflow/internal/store/memory"
	"cashflow/internal/users"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := users.NewStaticRepository([]users.Seed{
		{Username: "silviapasya", PIN: "080599", Name: "Sisil", Gender: "female"},
	})
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}

	ledger := services.NewLedgerService(memory.New(nil), nil)
	s := NewServer(Options{
		Addr:       ":0",
		SessionTTL: time.Hour,
		UploadDir:  t.TempDir(),
	}, ledger, repo)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func loginCookie(t *testing.T, s *Server) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {"silviapasya"}, "pin": {"080599"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set after login")
	return nil
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	rec = do(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}
	rec = do(s, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "awake") {
		t.Fatalf("ping = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/", "/data", "/stats", "/settings"} {
		rec := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("GET %s status = %d, want %d", path, rec.Code, http.StatusSeeOther)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Fatalf("GET %s redirects to %q, want /login", path, loc)
		}
	}
}

func TestLoginRejectsWrongPIN(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"username": {"silviapasya"}, "pin": {"000000"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(s, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "Wrong username or PIN") {
		t.Fatalf("body missing error message: %q", rec.Body.String())
	}
}

func TestLoginAndDashboard(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "Sisil") {
		t.Fatalf("dashboard missing user name")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	do(s, req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := do(s, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status after logout = %d, want redirect", rec.Code)
	}
}

func TestAddTransactionFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	form := url.Values{
		"type":        {"out"},
		"category":    {"🍔 Makan"},
		"description": {"nasi goreng"},
		"amount":      {"25.000"},
		"usage":       {"personal"},
	}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec := do(s, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add status = %d, want redirect", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/data", nil)
	req.AddCookie(cookie)
	rec = do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("data status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "nasi goreng") || !strings.Contains(body, "Rp 25.000") {
		t.Fatalf("data page missing transaction")
	}
}

func TestAddIncomeForcesCategoryAndUsage(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	form := url.Values{
		"type":     {"in"},
		"category": {"🍔 Makan"}, // ignored for income
		"amount":   {"1.500.000"},
		"usage":    {"personal"}, // ignored for income
	}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	do(s, req)

	snap, err := s.ledger.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(snap.Transactions))
	}
	tx := snap.Transactions[0]
	if tx.Category != core.IncomeCategory || tx.Usage != core.UsageBusiness {
		t.Fatalf("income not forced: %+v", tx)
	}
}

func TestAddRejectsBadAmount(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	form := url.Values{"type": {"out"}, "category": {"x"}, "amount": {"-10"}, "usage": {"personal"}}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	do(s, req)

	snap, _ := s.ledger.Snapshot(context.Background())
	if len(snap.Transactions) != 0 {
		t.Fatalf("invalid amount should not be saved, got %d rows", len(snap.Transactions))
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	if _, err := s.ledger.Add(context.Background(), core.Transaction{
		Date: core.BusinessDay(0), Category: "🍔 Makan",
		Amount: core.Money{Cents: 100}, Type: core.TypeOut, Usage: core.UsagePersonal,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/delete/1", nil)
	req.AddCookie(cookie)
	rec := do(s, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", rec.Code)
	}

	snap, _ := s.ledger.Snapshot(context.Background())
	if len(snap.Transactions) != 0 {
		t.Fatalf("transaction not deleted")
	}
}

func TestStatsPage(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	if _, err := s.ledger.Add(context.Background(), core.Transaction{
		Date: core.BusinessDay(0), Category: "🍔 Makan", Description: "lunch",
		Amount: core.Money{Cents: 5000000}, Type: core.TypeOut, Usage: core.UsagePersonal,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.AddCookie(cookie)
	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Rp 50.000") || !strings.Contains(body, "🍔 Makan") {
		t.Fatalf("stats page missing aggregates")
	}
}

func TestCategoryCRUDRoutes(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	form := url.Values{"name": {"🎁 Hadiah"}}
	req := httptest.NewRequest(http.MethodPost, "/categories/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	do(s, req)

	cats, _ := s.ledger.Categories(context.Background())
	found := false
	for _, c := range cats {
		if c == "🎁 Hadiah" {
			found = true
		}
	}
	if !found {
		t.Fatalf("category not added: %v", cats)
	}

	req = httptest.NewRequest(http.MethodGet, "/categories/delete/"+url.PathEscape("🎁 Hadiah"), nil)
	req.AddCookie(cookie)
	rec := do(s, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete category status = %d", rec.Code)
	}
}

func TestParseCriteriaDefaultsToToday(t *testing.T) {
	cases := []struct {
		url  string
		want core.FilterKind
	}{
		{"/data", core.FilterToday},
		{"/data?filter=today", core.FilterToday},
		{"/data?filter=yesterday", core.FilterYesterday},
		{"/data?filter=all", core.FilterAll},
		{"/data?month=2026-02", core.FilterMonth},
		{"/data?start_date=2026-02-01&end_date=2026-02-10", core.FilterRange},
		{"/data?start_date=2026-02-01", core.FilterSingle},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.url, nil)
		if got := parseCriteria(req); got.Kind != tc.want {
			t.Errorf("parseCriteria(%s).Kind = %q, want %q", tc.url, got.Kind, tc.want)
		}
	}
}

func TestHistoryDefaultsToToday(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	for _, tx := range []core.Transaction{
		{Date: core.BusinessDay(0), Category: "🍔 Makan", Description: "kopi pagi",
			Amount: core.Money{Cents: 1500000}, Type: core.TypeOut, Usage: core.UsagePersonal},
		{Date: core.BusinessDay(-1), Category: "🚕 Transport", Description: "ojek kemarin",
			Amount: core.Money{Cents: 2000000}, Type: core.TypeOut, Usage: core.UsagePersonal},
	} {
		if _, err := s.ledger.Add(context.Background(), tx); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.AddCookie(cookie)
	body := do(s, req).Body.String()
	if !strings.Contains(body, "kopi pagi") {
		t.Fatal("default history should include today's transaction")
	}
	if strings.Contains(body, "ojek kemarin") {
		t.Fatal("default history should exclude yesterday's transaction")
	}

	req = httptest.NewRequest(http.MethodGet, "/data?filter=all", nil)
	req.AddCookie(cookie)
	body = do(s, req).Body.String()
	if !strings.Contains(body, "kopi pagi") || !strings.Contains(body, "ojek kemarin") {
		t.Fatal("filter=all should include both transactions")
	}
}

func TestStatsFilterShortcuts(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	for _, tx := range []core.Transaction{
		{Date: core.BusinessDay(0), Category: "🍔 Makan",
			Amount: core.Money{Cents: 5000000}, Type: core.TypeOut, Usage: core.UsagePersonal},
		{Date: core.BusinessDay(-1), Category: "🚕 Transport",
			Amount: core.Money{Cents: 2000000}, Type: core.TypeOut, Usage: core.UsagePersonal},
	} {
		if _, err := s.ledger.Add(context.Background(), tx); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/stats?filter=yesterday", nil)
	req.AddCookie(cookie)
	body := do(s, req).Body.String()
	if !strings.Contains(body, "Yesterday") || !strings.Contains(body, "Rp 20.000") {
		t.Fatal("stats should aggregate yesterday's expense for filter=yesterday")
	}
	if strings.Contains(body, "🍔 Makan") {
		t.Fatal("today's category should not appear in yesterday's breakdown")
	}

	req = httptest.NewRequest(http.MethodGet, "/stats?filter=all", nil)
	req.AddCookie(cookie)
	body = do(s, req).Body.String()
	if !strings.Contains(body, "Rp 70.000") {
		t.Fatal("filter=all should aggregate both days")
	}
}

func TestAddIgnoresClientSuppliedDay(t *testing.T) {
	s := newTestServer(t)
	cookie := loginCookie(t, s)

	form := url.Values{
		"type":     {"out"},
		"category": {"🍔 Makan"},
		"amount":   {"10.000"},
		"usage":    {"personal"},
		"when":     {"yesterday"}, // stray field, must not move the date
	}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	do(s, req)

	snap, err := s.ledger.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(snap.Transactions))
	}
	if got, want := snap.Transactions[0].Date, core.BusinessDay(0); got != want {
		t.Fatalf("stored date = %s, want current business day %s", got, want)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing X-Frame-Options header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing X-Content-Type-Options header")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("61st request within a minute should be blocked")
	}
	if !rl.allow("5.6.7.8") {
		t.Fatal("other clients should not be affected")
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "Rp 0"},
		{100, "Rp 1"},
		{2500000, "Rp 25.000"},
		{150000000, "Rp 1.500.000"},
		{1234, "Rp 12,34"},
		{-2500000, "-Rp 25.000"},
	}
	for _, tc := range cases {
		if got := formatRupiah(tc.cents); got != tc.want {
			t.Errorf("formatRupiah(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
