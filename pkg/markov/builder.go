package markov

import (
	"fmt"
	"io"
	"log/slog"
)

// Builder accumulates a Model from tokenized texts by counting adjacent
// token pairs. A Builder is not safe for concurrent use.
type Builder struct {
	tokenizer Tokenizer
	model     *Model
	learned   int
	logger    *slog.Logger
}

// NewBuilder creates a Builder that splits texts with tokenizer.
func NewBuilder(tokenizer Tokenizer) *Builder {
	return &Builder{
		tokenizer: tokenizer,
		model:     newModel(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Builder. By default, all logs are discarded.
func (b *Builder) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// Learn tokenizes text and counts every adjacent pair of the stream
// <SOC> w1 ... wn <EOC>. An empty text still counts <SOC> -> <EOC>.
// If the tokenizer fails, the returned error wraps ErrTokenization and the
// model is left unmodified.
func (b *Builder) Learn(text string) error {
	words, err := b.tokenizer.Tokenize(text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenization, err)
	}

	prev := StartToken
	for _, word := range words {
		if word == "" {
			continue
		}
		next := NewWord(word)
		b.model.increment(prev, next)
		prev = next
	}
	b.model.increment(prev, EndToken)
	b.learned++
	return nil
}

// LearnMany learns every text independently and returns how many of them
// failed to tokenize. A failing text never stops the batch; callers that need
// per-text errors should call Learn themselves.
func (b *Builder) LearnMany(texts []string) int {
	var failures int
	for i, text := range texts {
		if err := b.Learn(text); err != nil {
			failures++
			b.logger.Debug("Skipping text that failed to tokenize",
				slog.Int("index", i),
				slog.Any("error", err),
			)
		}
	}

	b.logger.Info("Learning completed",
		slog.Int("texts_processed", len(texts)),
		slog.Int("texts_failed", failures),
		slog.Int("sources", b.model.Len()),
	)
	return failures
}

// Learned returns the number of texts successfully learned since the last Build.
func (b *Builder) Learned() int {
	return b.learned
}

// Build returns the accumulated Model and resets the Builder to an empty
// table, so the returned Model is never modified by later calls to Learn.
func (b *Builder) Build() *Model {
	model := b.model
	b.model = newModel()
	b.logger.Info("Model built",
		slog.Int("texts_learned", b.learned),
		slog.Int("sources", model.Len()),
	)
	b.learned = 0
	return model
}
