package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/CTAG07/Murmur/pkg/markov"
)

// ErrModelNotFound is returned when no model with the requested name exists.
var ErrModelNotFound = errors.New("store: model not found")

// ModelInfo holds the metadata of a stored model.
type ModelInfo struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store saves and loads Markov models. It holds the database connection and
// prepared SQL statements for efficient database interaction. A Store is safe
// for concurrent use.
type Store struct {
	db                *sql.DB
	stmtGetModelInfo  *sql.Stmt
	stmtGetModels     *sql.Stmt
	stmtUpsertModel   *sql.Stmt
	stmtDeleteModel   *sql.Stmt
	stmtDeleteChains  *sql.Stmt
	stmtInsertVocab   *sql.Stmt
	stmtInsertLink    *sql.Stmt
	stmtGetChains     *sql.Stmt
	stmtModelSources  *sql.Stmt
	stmtModelChains   *sql.Stmt
	stmtModelFreq     *sql.Stmt
	stmtModelStarters *sql.Stmt
	stmtGetVocabLen   *sql.Stmt
	logger            *slog.Logger
}

// New creates and returns a new Store. The schema must already exist; see
// SetupSchema. It pre-compiles all necessary SQL statements, returning an
// error if any preparation fails.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	statements := []struct {
		stmt  **sql.Stmt
		query string
	}{
		{&s.stmtGetModelInfo, `SELECT model_id, created_at FROM markov_models WHERE model_name = ?;`},
		{&s.stmtGetModels, `SELECT model_id, model_name, created_at FROM markov_models ORDER BY model_name;`},
		{&s.stmtUpsertModel, `INSERT INTO markov_models (model_name, created_at) VALUES (?, ?) ON CONFLICT(model_name) DO UPDATE SET model_name=excluded.model_name RETURNING model_id;`},
		{&s.stmtDeleteModel, `DELETE FROM markov_models WHERE model_id = ?;`},
		{&s.stmtDeleteChains, `DELETE FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtInsertVocab, `INSERT INTO markov_vocabulary (token_kind, token_text) VALUES (?, ?) ON CONFLICT(token_kind, token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`},
		{&s.stmtInsertLink, `INSERT INTO markov_chains (model_id, from_token_id, to_token_id, frequency) VALUES (?, ?, ?, ?);`},
		{&s.stmtGetChains, `
SELECT f.token_kind, f.token_text, t.token_kind, t.token_text, c.frequency
FROM markov_chains c
JOIN markov_vocabulary f ON f.token_id = c.from_token_id
JOIN markov_vocabulary t ON t.token_id = c.to_token_id
WHERE c.model_id = ?;`},
		{&s.stmtModelSources, `SELECT COUNT(DISTINCT from_token_id) FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtModelChains, `SELECT COUNT(*) FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtModelFreq, `SELECT coalesce(SUM(frequency), 0) FROM markov_chains WHERE model_id = ?;`},
		{&s.stmtModelStarters, `SELECT COUNT(*) FROM markov_chains WHERE model_id = ? AND from_token_id = ?;`},
		{&s.stmtGetVocabLen, `SELECT COUNT(*) FROM markov_vocabulary;`},
	}

	for _, st := range statements {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to prepare statement: %w", err)
		}
		*st.stmt = stmt
	}

	return s, nil
}

// Close releases the prepared statements. The database itself is left open.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtGetModelInfo, s.stmtGetModels, s.stmtUpsertModel, s.stmtDeleteModel,
		s.stmtDeleteChains, s.stmtInsertVocab, s.stmtInsertLink, s.stmtGetChains,
		s.stmtModelSources, s.stmtModelChains, s.stmtModelFreq, s.stmtModelStarters,
		s.stmtGetVocabLen,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Info retrieves the metadata for a single model specified by name.
func (s *Store) Info(ctx context.Context, name string) (ModelInfo, error) {
	var id int
	var createdAt int64
	err := s.stmtGetModelInfo.QueryRowContext(ctx, name).Scan(&id, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ModelInfo{}, fmt.Errorf("%w: %q", ErrModelNotFound, name)
		}
		return ModelInfo{}, err
	}
	return ModelInfo{
		Id:        id,
		Name:      name,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
	}, nil
}

// List retrieves metadata for all stored models, ordered by name.
func (s *Store) List(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make([]ModelInfo, 0)
	for rows.Next() {
		var info ModelInfo
		var createdAt int64
		if err = rows.Scan(&info.Id, &info.Name, &createdAt); err != nil {
			return nil, err
		}
		info.CreatedAt = time.Unix(createdAt, 0).UTC()
		models = append(models, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// Save stores model under name, replacing every chain previously saved under
// that name. The operation is performed within a single transaction, so a
// failed save leaves the previous contents intact.
func (s *Store) Save(ctx context.Context, name string, model *markov.Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// All transaction-specific statements will also be closed with this or the .Commit()
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var modelId int
	if err = tx.StmtContext(ctx, s.stmtUpsertModel).QueryRowContext(ctx, name, time.Now().Unix()).Scan(&modelId); err != nil {
		return fmt.Errorf("could not insert model %q: %w", name, err)
	}
	if _, err = tx.StmtContext(ctx, s.stmtDeleteChains).ExecContext(ctx, modelId); err != nil {
		return fmt.Errorf("could not clear chains for model %q: %w", name, err)
	}

	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	stmtInsertLink := tx.StmtContext(ctx, s.stmtInsertLink)

	tokenCache := map[markov.Token]int{
		markov.StartToken: SOCTokenID,
		markov.EndToken:   EOCTokenID,
	}
	tokenID := func(t markov.Token) (int, error) {
		if id, ok := tokenCache[t]; ok {
			return id, nil
		}
		var id int
		if err := stmtInsertVocab.QueryRowContext(ctx, int64(t.Kind()), t.Text()).Scan(&id); err != nil {
			return 0, fmt.Errorf("sql insert vocabulary error for token %q: %w", t, err)
		}
		tokenCache[t] = id
		return id, nil
	}

	var links int
	for _, from := range model.Sources() {
		fromID, err := tokenID(from)
		if err != nil {
			return err
		}
		for _, next := range model.Successors(from) {
			toID, err := tokenID(next.Item)
			if err != nil {
				return err
			}
			if _, err = stmtInsertLink.ExecContext(ctx, modelId, fromID, toID, int64(next.Weight)); err != nil {
				return fmt.Errorf("failed to insert chain link (%q -> %q): %w", from, next.Item, err)
			}
			links++
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", name),
		slog.Int("model_id", modelId),
		slog.Int("links", links),
	)
	return nil
}

// Load rebuilds the model stored under name. It returns ErrModelNotFound if
// there is no such model, and an error if the stored chains do not form a
// valid model.
func (s *Store) Load(ctx context.Context, name string) (*markov.Model, error) {
	info, err := s.Info(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.stmtGetChains.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query chains for model %q: %w", name, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	transitions := make(map[markov.Token]map[markov.Token]uint32)
	for rows.Next() {
		var fromKind, toKind markov.Kind
		var fromText, toText string
		var frequency int64
		if err = rows.Scan(&fromKind, &fromText, &toKind, &toText, &frequency); err != nil {
			return nil, err
		}
		if frequency < 1 || frequency > math.MaxUint32 {
			return nil, fmt.Errorf("model %q has invalid frequency %d", name, frequency)
		}
		from, err := tokenFromRow(fromKind, fromText)
		if err != nil {
			return nil, err
		}
		to, err := tokenFromRow(toKind, toText)
		if err != nil {
			return nil, err
		}
		next, ok := transitions[from]
		if !ok {
			next = make(map[markov.Token]uint32)
			transitions[from] = next
		}
		next[to] = uint32(frequency)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	model, err := markov.ModelFromTransitions(transitions)
	if err != nil {
		return nil, fmt.Errorf("model %q is corrupt: %w", name, err)
	}

	s.logger.DebugContext(ctx, "Model loaded",
		slog.String("model_name", name),
		slog.Int("sources", model.Len()),
	)
	return model, nil
}

func tokenFromRow(kind markov.Kind, text string) (markov.Token, error) {
	switch kind {
	case markov.KindStart:
		return markov.StartToken, nil
	case markov.KindEnd:
		return markov.EndToken, nil
	case markov.KindWord:
		return markov.NewWord(text), nil
	default:
		return markov.Token{}, fmt.Errorf("unknown token kind %d", kind)
	}
}

// Remove deletes a model and all of its associated chain data from the
// database. The operation is performed within a transaction. Vocabulary
// entries are shared between models and are kept.
func (s *Store) Remove(ctx context.Context, name string) error {
	info, err := s.Info(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.StmtContext(ctx, s.stmtDeleteChains).ExecContext(ctx, info.Id); err != nil {
		return fmt.Errorf("failed to remove chains for model %d: %w", info.Id, err)
	}
	if _, err = tx.StmtContext(ctx, s.stmtDeleteModel).ExecContext(ctx, info.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", info.Id, err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
	)
	return nil
}
