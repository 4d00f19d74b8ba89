package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpListsForwardMigrationsInOrder(t *testing.T) {
	names, err := Up()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.up.sql", names[0])
	for _, n := range names {
		assert.NotContains(t, n, ".down.")
	}
}

func TestInitCreatesInvoiceTables(t *testing.T) {
	sql, err := Read("0001_init.up.sql")
	require.NoError(t, err)
	for _, table := range []string{"users", "user_sessions", "invoices", "invoice_lines", "audit_logs"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
	assert.Contains(t, sql, "ON DELETE CASCADE")
}
