package google

import (
	"fmt"
	"strconv"
	"strings"

	"cashflow/internal/core"
)

// rowsToRecords converts raw sheet rows into records for the core,
// reversed so the newest append comes first. startRow is the sheet row
// number of rows[0], used for row references.
func rowsToRecords(rows [][]any, startRow int) []core.RawRecord {
	out := make([]core.RawRecord, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		cells := rows[i]
		if isBlankRow(cells) {
			continue
		}
		rec := core.RawRecord{
			ID:          cellInt64(cells, 0),
			RowRef:      strconv.Itoa(startRow + i),
			Date:        cell(cells, 1),
			Category:    cell(cells, 2),
			Description: cell(cells, 3),
			Amount:      cell(cells, 4),
			Type:        cellString(cells, 5),
			Usage:       cellString(cells, 6),
			CreatedBy:   cellString(cells, 7),
		}
		out = append(out, rec)
	}
	return out
}

func isBlankRow(cells []any) bool {
	for _, c := range cells {
		if strings.TrimSpace(fmt.Sprint(c)) != "" {
			return false
		}
	}
	return true
}

func cell(cells []any, idx int) any {
	if idx >= len(cells) {
		return nil
	}
	return cells[idx]
}

func cellString(cells []any, idx int) string {
	if idx >= len(cells) || cells[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cells[idx]))
}

// cellInt64 reads an ID cell; unformatted numeric cells arrive as float64.
func cellInt64(cells []any, idx int) int64 {
	if idx >= len(cells) {
		return 0
	}
	switch v := cells[idx].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
