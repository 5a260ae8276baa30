package store

import (
	"context"

	"cashflow/internal/core"
)

// Ports for outbound storage adapters. The ledger core is storage-agnostic:
// each backend hands back rows in its native shape and the core normalizes
// them. Adapters deliver rows in storage order descending (newest first).
type (
	TransactionSource interface {
		LoadAll(ctx context.Context) ([]core.RawRecord, error)
	}

	TransactionWriter interface {
		Insert(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionUpdater edits a row in place via the adapter row reference.
	// Date and Type are not part of the update set.
	TransactionUpdater interface {
		Update(ctx context.Context, rowRef string, fields core.TransactionUpdate) error
	}

	TransactionDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// CategoryStore persists the shared category list. Keeping it behind the
	// same adapter boundary removes the divergent in-memory vs. remote-sheet
	// state the category screens would otherwise juggle.
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]string, error)
		AddCategory(ctx context.Context, name string) error
		RenameCategory(ctx context.Context, oldName, newName string) error
		DeleteCategory(ctx context.Context, name string) error
	}
)
