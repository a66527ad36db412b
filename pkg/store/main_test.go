package store

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Murmur/pkg/markov"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new SQLite database file and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SetupSchema(db), "failed to set up schema")

	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return db, s
}

var whitespaceTokenizer = markov.TokenizerFunc(func(text string) ([]string, error) {
	return strings.Fields(text), nil
})

// buildModel learns texts with a whitespace tokenizer.
func buildModel(texts ...string) *markov.Model {
	b := markov.NewBuilder(whitespaceTokenizer)
	b.LearnMany(texts)
	return b.Build()
}
