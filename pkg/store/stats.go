package store

import "context"

// DBStats holds aggregated statistics for the entire database, including a
// list of all models and their individual stats.
type DBStats struct {
	Models    []ModelInfo        `json:"models"`     // A list of models in the database
	Stats     map[int]ModelStats `json:"stats"`      // A mapping of model ids to their stats
	VocabSize int                `json:"vocab_size"` // The number of unique tokens in all models' vocabularies
}

// ModelStats holds aggregated statistics for a single stored model.
type ModelStats struct {
	Sources        int   `json:"sources"`         // The number of distinct source tokens.
	TotalChains    int   `json:"total_chains"`    // The number of unique source->next links.
	TotalFrequency int64 `json:"total_frequency"` // The sum of frequencies of all links; the total number of learned transitions.
	StartingTokens int   `json:"starting_tokens"` // The number of unique tokens that can start a chain.
}

// Stats returns a snapshot of statistics for the entire database,
// including global counts and per-model stats.
func (s *Store) Stats(ctx context.Context) (*DBStats, error) {
	models, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var vocabLen int
	if err = s.stmtGetVocabLen.QueryRowContext(ctx).Scan(&vocabLen); err != nil {
		return nil, err
	}

	modelStats := make(map[int]ModelStats, len(models))
	for _, m := range models {
		var stats ModelStats
		if err = s.stmtModelSources.QueryRowContext(ctx, m.Id).Scan(&stats.Sources); err != nil {
			return nil, err
		}
		if err = s.stmtModelChains.QueryRowContext(ctx, m.Id).Scan(&stats.TotalChains); err != nil {
			return nil, err
		}
		if err = s.stmtModelFreq.QueryRowContext(ctx, m.Id).Scan(&stats.TotalFrequency); err != nil {
			return nil, err
		}
		if err = s.stmtModelStarters.QueryRowContext(ctx, m.Id, SOCTokenID).Scan(&stats.StartingTokens); err != nil {
			return nil, err
		}
		modelStats[m.Id] = stats
	}

	return &DBStats{
		Models:    models,
		Stats:     modelStats,
		VocabSize: vocabLen,
	}, nil
}
