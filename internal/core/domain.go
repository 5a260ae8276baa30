package core

import (
	"errors"
	"strings"
)

const (
	TypeIn  TxType = "in"
	TypeOut TxType = "out"

	UsagePersonal Usage = "personal"
	UsageBusiness Usage = "business"

	// IncomeCategory is assigned to every income transaction on creation.
	IncomeCategory = "✨ Income"

	// FallbackCategory replaces category values that arrive empty or
	// non-textual from a backing store.
	FallbackCategory = "📝 Uncategorized"
)

type (
	TxType string
	Usage  string

	Money struct {
		Cents int64
	}

	// RawRecord is a transaction row as delivered by a storage adapter,
	// before normalization. Date, Category, Description and Amount keep
	// whatever native shape the backing store produced: native dates,
	// locale-formatted strings or spreadsheet serial numbers.
	RawRecord struct {
		ID          int64
		RowRef      string
		Date        any
		Category    any
		Description any
		Amount      any
		Type        string
		Usage       string
		CreatedBy   string
	}

	Transaction struct {
		ID          int64
		RowRef      string
		Date        string // YYYY-MM-DD
		Category    string
		Description string
		Amount      Money
		Type        TxType
		Usage       Usage
		CreatedBy   string
	}

	// TransactionUpdate carries the editable fields of a transaction.
	// Date and Type are fixed at creation and never re-derived on edit.
	TransactionUpdate struct {
		Category    string
		Description string
		Amount      Money
		Usage       Usage
		EditedBy    string
	}

	Stats struct {
		Balance     Money
		TotalIn     Money
		TotalOut    Money
		OutPersonal Money
		OutBusiness Money
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyCategory = errors.New("empty category")
)

func (t TxType) Valid() bool {
	return t == TypeIn || t == TypeOut
}

func (u Usage) Valid() bool {
	return u == UsagePersonal || u == UsageBusiness
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a transaction as produced by the input path.
// Usage is only meaningful for expenses and is not enforced here.
func (tx Transaction) Validate() error {
	if !isNormalizedDate(tx.Date) {
		return ErrInvalidDate
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	return tx.Amount.Validate()
}

// isNormalizedDate reports whether s has the YYYY-MM-DD shape.
func isNormalizedDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
