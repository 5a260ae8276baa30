package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "missing spreadsheet ID")
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-123"})
	assert.ErrorContains(t, err, "missing service account credentials")
}
