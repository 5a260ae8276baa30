package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/core"
)

func TestRowsToRecordsReversesAndKeepsRawShapes(t *testing.T) {
	rows := [][]any{
		{float64(1), float64(46063), "🍔 Makan", "nasi goreng", float64(25000), "out", "personal", "Sisil"},
		{float64(2), "2026-02-11", core.IncomeCategory, "gaji", "1.500.000", "in", "business", "Fariz"},
	}

	recs := rowsToRecords(rows, 2)
	require.Len(t, recs, 2)

	// Newest append first.
	assert.Equal(t, int64(2), recs[0].ID)
	assert.Equal(t, "3", recs[0].RowRef)
	assert.Equal(t, "2026-02-11", recs[0].Date)
	assert.Equal(t, "1.500.000", recs[0].Amount)
	assert.Equal(t, "in", recs[0].Type)
	assert.Equal(t, "Fariz", recs[0].CreatedBy)

	assert.Equal(t, int64(1), recs[1].ID)
	assert.Equal(t, "2", recs[1].RowRef)
	assert.Equal(t, float64(46063), recs[1].Date, "serial dates pass through unconverted")
	assert.Equal(t, float64(25000), recs[1].Amount)
}

func TestRowsToRecordsSkipsBlankAndShortRows(t *testing.T) {
	rows := [][]any{
		{"", "", ""},
		{float64(7), float64(45000)},
		{},
	}

	recs := rowsToRecords(rows, 2)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(7), recs[0].ID)
	assert.Equal(t, "3", recs[0].RowRef)
	assert.Empty(t, recs[0].Type)
	assert.Empty(t, recs[0].CreatedBy)
	assert.Nil(t, recs[0].Amount)
}

func TestRowsToRecordsNormalizesIntoTransactions(t *testing.T) {
	rows := [][]any{
		{float64(10), float64(45000), "🏠 Tagihan", "listrik", float64(350000), "out", "personal", "Sisil"},
	}

	txs := core.Normalize(rowsToRecords(rows, 2))
	require.Len(t, txs, 1)
	assert.Equal(t, "2023-03-15", txs[0].Date)
	assert.Equal(t, int64(35000000), txs[0].Amount.Cents)
	assert.Equal(t, core.TypeOut, txs[0].Type)
}

func TestCellInt64Coercions(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{float64(42), 42},
		{int64(7), 7},
		{3, 3},
		{" 19 ", 19},
		{"x", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cellInt64([]any{tc.in}, 0), "in=%v", tc.in)
	}
}
