package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerStatements(t *testing.T) {
	r := NewRunner()
	assert.Equal(t, "1.0.0", r.Version())

	stmts := r.Statements()
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS datasets")
	assert.Contains(t, stmts[1], "REFERENCES datasets(id) ON DELETE CASCADE")
	for _, s := range stmts {
		assert.True(t, strings.Contains(s, "IF NOT EXISTS"), "statement must be idempotent: %s", s)
	}
}
