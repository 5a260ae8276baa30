// Package memory provides an in-memory storage adapter used by tests and
// local development. Rows are kept in insertion order and delivered
// newest-first, matching the other backends.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cashflow/internal/core"
)

// DefaultCategories seeds a fresh store.
var DefaultCategories = []string{
	"🛍️ Belanja", "🍔 Makan", "💅 Skincare", "🚕 Transport",
	"🏠 Tagihan", "🐾 Kucing", core.IncomeCategory,
}

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
	cats   []string
}

func New(cats []string) *Store {
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	return &Store{nextID: 1, cats: dedupe(cats)}
}

// LoadAll returns every row, newest insertion first.
func (s *Store) LoadAll(_ context.Context) ([]core.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RawRecord, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		tx := s.items[i]
		out = append(out, core.RawRecord{
			ID:          tx.ID,
			RowRef:      tx.RowRef,
			Date:        tx.Date,
			Category:    tx.Category,
			Description: tx.Description,
			Amount:      tx.Amount,
			Type:        string(tx.Type),
			Usage:       string(tx.Usage),
			CreatedBy:   tx.CreatedBy,
		})
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextID
	s.nextID++
	tx.RowRef = fmt.Sprintf("mem:%d", tx.ID)
	s.items = append(s.items, tx)
	return tx.RowRef, nil
}

func (s *Store) Update(_ context.Context, rowRef string, fields core.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].RowRef != rowRef {
			continue
		}
		s.items[i].Category = fields.Category
		s.items[i].Description = fields.Description
		s.items[i].Amount = fields.Amount
		s.items[i].Usage = fields.Usage
		s.items[i].CreatedBy = fields.EditedBy
		return nil
	}
	return fmt.Errorf("row %q not found", rowRef)
}

func (s *Store) Delete(_ context.Context, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == n {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %d not found", n)
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func (s *Store) AddCategory(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c == name {
			return nil
		}
	}
	s.cats = append(s.cats, name)
	return nil
}

func (s *Store) RenameCategory(_ context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c == oldName {
			s.cats[i] = newName
			return nil
		}
	}
	return fmt.Errorf("category %q not found", oldName)
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c == name {
			s.cats = append(s.cats[:i], s.cats[i+1:]...)
			return nil
		}
	}
	return nil
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
