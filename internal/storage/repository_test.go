package storage

import (
	"context"
	"path/filepath"
	"testing"

	"cashflow/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cashflow.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestInsertAndLoadAllOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	txs := []core.Transaction{
		{Date: "2026-02-09", Category: "🍔 Makan", Description: "sarapan", Amount: core.Money{Cents: 2500000}, Type: core.TypeOut, Usage: core.UsagePersonal, CreatedBy: "Sisil"},
		{Date: "2026-02-10", Category: core.IncomeCategory, Description: "gaji", Amount: core.Money{Cents: 150000000}, Type: core.TypeIn, Usage: core.UsageBusiness, CreatedBy: "Fariz"},
		{Date: "2026-02-10", Category: "🚕 Transport", Description: "ojek", Amount: core.Money{Cents: 1500000}, Type: core.TypeOut, Usage: core.UsageBusiness, CreatedBy: "Sisil"},
	}
	for _, tx := range txs {
		if _, err := repo.Insert(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	raw, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("got %d rows, want 3", len(raw))
	}
	// Newest date first, same-date rows by insertion order descending.
	if raw[0].ID != 3 || raw[1].ID != 2 || raw[2].ID != 1 {
		t.Fatalf("unexpected order: %d, %d, %d", raw[0].ID, raw[1].ID, raw[2].ID)
	}
	if m, ok := raw[0].Amount.(core.Money); !ok || m.Cents != 1500000 {
		t.Fatalf("amount should round-trip as cents, got %#v", raw[0].Amount)
	}
}

func TestInsertRejectsInvalidTransaction(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Insert(context.Background(), core.Transaction{
		Date: "10/02/2026", Category: "x",
		Amount: core.Money{Cents: 1}, Type: core.TypeOut, Usage: core.UsagePersonal,
	})
	if err == nil {
		t.Fatal("expected validation error for unnormalized date")
	}
}

func TestUpdateKeepsDateAndType(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref, err := repo.Insert(ctx, core.Transaction{
		Date: "2026-02-10", Category: "🍔 Makan", Description: "makan siang",
		Amount: core.Money{Cents: 3000000}, Type: core.TypeOut, Usage: core.UsagePersonal, CreatedBy: "Sisil",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = repo.Update(ctx, ref, core.TransactionUpdate{
		Category: "🏠 Tagihan", Description: "listrik",
		Amount: core.Money{Cents: 35000000}, Usage: core.UsageBusiness, EditedBy: "Fariz",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	raw, _ := repo.LoadAll(ctx)
	if raw[0].Category != "🏠 Tagihan" || raw[0].CreatedBy != "Fariz" {
		t.Fatalf("update not applied: %+v", raw[0])
	}
	if raw[0].Date != "2026-02-10" || raw[0].Type != "out" {
		t.Fatalf("update touched immutable columns: %+v", raw[0])
	}

	if err := repo.Update(ctx, "999", core.TransactionUpdate{Usage: core.UsagePersonal}); err == nil {
		t.Fatal("expected error for unknown row")
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref, err := repo.Insert(ctx, core.Transaction{
		Date: "2026-02-10", Category: "🍔 Makan",
		Amount: core.Money{Cents: 100}, Type: core.TypeOut, Usage: core.UsagePersonal,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, ref); err == nil {
		t.Fatal("expected error deleting missing row")
	}
	raw, _ := repo.LoadAll(ctx)
	if len(raw) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(raw))
	}
}

func TestCategorySeedAndCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("migrations should seed default categories")
	}
	found := false
	for _, c := range cats {
		if c == core.IncomeCategory {
			found = true
		}
	}
	if !found {
		t.Fatalf("seed missing %q: %v", core.IncomeCategory, cats)
	}

	if err := repo.AddCategory(ctx, "🎁 Hadiah"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.AddCategory(ctx, "🎁 Hadiah"); err != nil {
		t.Fatalf("duplicate add should be a no-op: %v", err)
	}
	if err := repo.RenameCategory(ctx, "🎁 Hadiah", "🎁 Kado"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := repo.RenameCategory(ctx, "missing", "x"); err == nil {
		t.Fatal("expected error renaming unknown category")
	}
	if err := repo.DeleteCategory(ctx, "🎁 Kado"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteCategory(ctx, "🎁 Kado"); err != nil {
		t.Fatalf("delete of missing category should be a no-op: %v", err)
	}
}
