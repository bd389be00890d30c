package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	src := `-- header
CREATE TABLE a (
    id INT
);

CREATE TABLE b (id INT);
INSERT INTO b VALUES (1)`
	stmts := SplitStatements(src)
	require.Len(t, stmts, 3)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a ("))
	assert.False(t, strings.HasSuffix(stmts[0], ";"))
	assert.Equal(t, "CREATE TABLE b (id INT)", stmts[1])
	assert.Equal(t, "INSERT INTO b VALUES (1)", stmts[2])
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	raw, err := migrationFiles.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	stmts := SplitStatements(string(raw))
	assert.Len(t, stmts, 5)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
	}
}
