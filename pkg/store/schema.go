package store

import (
	"database/sql"
	"fmt"

	"github.com/CTAG07/Murmur/pkg/markov"
)

const (
	// SOCTokenID is the reserved vocabulary ID for the Start-Of-Chain token.
	SOCTokenID = 0
	// EOCTokenID is the reserved vocabulary ID for the End-Of-Chain token.
	EOCTokenID = 1
)

// SetupSchema initializes the necessary tables and special vocabulary entries
// in the provided database. This function should be called once on a new
// database before any other operations are performed. It is idempotent and
// safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS markov_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_kind INTEGER NOT NULL,
    token_text TEXT NOT NULL,
    UNIQUE (token_kind, token_text)
);
`
		schemaModels = `
CREATE TABLE IF NOT EXISTS markov_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);
`
		schemaChains = `
CREATE TABLE IF NOT EXISTS markov_chains (
    model_id INTEGER NOT NULL,
    from_token_id INTEGER NOT NULL,
    to_token_id INTEGER NOT NULL,
    frequency INTEGER NOT NULL,
    PRIMARY KEY (model_id, from_token_id, to_token_id)
);
`
		insertSpecial = `INSERT OR IGNORE INTO markov_vocabulary (token_id, token_kind, token_text) VALUES (?, ?, ?);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, schema := range []string{schemaVocab, schemaModels, schemaChains} {
		if _, err = tx.Exec(schema); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if _, err = tx.Exec(insertSpecial, SOCTokenID, int64(markov.KindStart), markov.SOCTokenText); err != nil {
		return fmt.Errorf("could not insert special tokens: %w", err)
	}
	if _, err = tx.Exec(insertSpecial, EOCTokenID, int64(markov.KindEnd), markov.EOCTokenText); err != nil {
		return fmt.Errorf("could not insert special tokens: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
