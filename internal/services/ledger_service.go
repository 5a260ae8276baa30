package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"cashflow/internal/amqp"
	"cashflow/internal/backend"
	"cashflow/internal/core"

	"golang.org/x/sync/errgroup"
)

// LedgerService orchestrates transaction operations against the storage
// backend and publishes lifecycle events for downstream consumers.
type LedgerService struct {
	backend backend.Backend
	events  *amqp.Client
}

func NewLedgerService(b backend.Backend, events *amqp.Client) *LedgerService {
	return &LedgerService{
		backend: b,
		events:  events,
	}
}

// Snapshot is a request-scoped view of the ledger: normalized transactions
// newest-first plus the current category list.
type Snapshot struct {
	Transactions []core.Transaction
	Categories   []string
}

// Snapshot loads transactions and categories concurrently and normalizes
// the raw rows. Rows the normalizer drops are logged, not surfaced.
func (s *LedgerService) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		raw  []core.RawRecord
		cats []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = s.backend.LoadAll(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cats, err = s.backend.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	txs := core.Normalize(raw)
	if dropped := len(raw) - len(txs); dropped > 0 {
		slog.WarnContext(ctx, "Dropped unparseable rows during normalization",
			"dropped", dropped, "total", len(raw))
	}

	return Snapshot{Transactions: txs, Categories: cats}, nil
}

// Add validates and stores a new transaction, then publishes a created
// event. Event failures are logged and never fail the request.
func (s *LedgerService) Add(ctx context.Context, tx core.Transaction) (string, error) {
	ref, err := s.backend.Insert(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	evt := amqp.NewTransactionEvent(amqp.ActionCreated)
	evt.RowRef = ref
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		evt.ID = id
	}
	evt.Date = tx.Date
	evt.Category = tx.Category
	evt.AmountCents = tx.Amount.Cents
	evt.Type = string(tx.Type)
	evt.Usage = string(tx.Usage)
	evt.Actor = tx.CreatedBy
	s.publish(ctx, evt)

	return ref, nil
}

// Edit rewrites the mutable fields of an existing row. Date and type are
// fixed at creation.
func (s *LedgerService) Edit(ctx context.Context, rowRef string, fields core.TransactionUpdate) error {
	if fields.Category == "" {
		return core.ErrEmptyCategory
	}
	if err := fields.Amount.Validate(); err != nil {
		return err
	}
	if !fields.Usage.Valid() {
		return fmt.Errorf("invalid usage %q", fields.Usage)
	}

	if err := s.backend.Update(ctx, rowRef, fields); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	evt := amqp.NewTransactionEvent(amqp.ActionUpdated)
	evt.RowRef = rowRef
	evt.Category = fields.Category
	evt.AmountCents = fields.Amount.Cents
	evt.Usage = string(fields.Usage)
	evt.Actor = fields.EditedBy
	s.publish(ctx, evt)

	return nil
}

// Remove deletes a transaction by its ID.
func (s *LedgerService) Remove(ctx context.Context, id string, actor string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	evt := amqp.NewTransactionEvent(amqp.ActionDeleted)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		evt.ID = n
	}
	evt.Actor = actor
	s.publish(ctx, evt)

	return nil
}

func (s *LedgerService) Categories(ctx context.Context) ([]string, error) {
	return s.backend.ListCategories(ctx)
}

func (s *LedgerService) AddCategory(ctx context.Context, name string) error {
	return s.backend.AddCategory(ctx, name)
}

func (s *LedgerService) RenameCategory(ctx context.Context, oldName, newName string) error {
	return s.backend.RenameCategory(ctx, oldName, newName)
}

func (s *LedgerService) DeleteCategory(ctx context.Context, name string) error {
	return s.backend.DeleteCategory(ctx, name)
}

func (s *LedgerService) publish(ctx context.Context, evt *amqp.TransactionEvent) {
	if err := s.events.PublishTransactionEvent(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", evt.Action, "row_ref", evt.RowRef, "error", err)
	}
}
