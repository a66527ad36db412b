package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/notestock"
)

// ModelState is the application state shared by the HTTP handlers: the model
// currently served and a pending builder that accumulates learned texts.
//
// Learning happens on the pending builder under its own lock and never blocks
// generation. Build swaps the result in under the write lock. Each generation
// request gets its own Generator over the current, read-only model.
type ModelState struct {
	mu    sync.RWMutex
	model *markov.Model

	pendingMu sync.Mutex
	pending   *markov.Builder

	tokenizer markov.Tokenizer
	maxLength int
	logger    *slog.Logger
}

// NewModelState creates an empty state. maxLength caps every generated text;
// zero means unbounded.
func NewModelState(tokenizer markov.Tokenizer, maxLength int, logger *slog.Logger) *ModelState {
	pending := markov.NewBuilder(tokenizer)
	pending.SetLogger(logger)
	return &ModelState{
		pending:   pending,
		tokenizer: tokenizer,
		maxLength: maxLength,
		logger:    logger,
	}
}

// Model returns the model currently served, or nil if none has been built.
func (s *ModelState) Model() *markov.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel replaces the model currently served.
func (s *ModelState) SetModel(model *markov.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Learn adds texts to the pending builder and returns how many failed to tokenize.
func (s *ModelState) Learn(texts []string) int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return s.pending.LearnMany(texts)
}

// Pending returns how many texts were learned since the last Build.
func (s *ModelState) Pending() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return s.pending.Learned()
}

// Build turns the pending texts into a model, serves it, and starts a new
// pending builder.
func (s *ModelState) Build() *markov.Model {
	s.pendingMu.Lock()
	model := s.pending.Build()
	s.pendingMu.Unlock()

	s.SetModel(model)
	s.logger.Info("Model built", slog.Int("sources", model.Len()))
	return model
}

// Prune replaces the current model with a copy lacking links seen minFreq
// times or fewer, and returns the stats of the model before and after.
func (s *ModelState) Prune(minFreq uint32) (before, after markov.ModelStats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return before, after, markov.ErrUninitializedModel
	}
	before = s.model.Stats()
	s.model = s.model.Pruned(minFreq)
	return before, s.model.Stats(), nil
}

// NewGenerator returns a Generator over the current model.
func (s *ModelState) NewGenerator() *markov.Generator {
	return markov.NewGenerator(s.Model(),
		markov.WithMaxLength(s.maxLength),
		markov.WithLogger(s.logger),
	)
}

// Generation is a single generated text.
type Generation struct {
	Text  string   `json:"text"`
	Words []string `json:"words"`
}

// Generate produces count texts starting at start ("" starts at the
// beginning of a text).
func (s *ModelState) Generate(ctx context.Context, start string, count int) ([]Generation, error) {
	gen := s.NewGenerator()
	if err := gen.SetStart(start); err != nil {
		return nil, err
	}

	out := make([]Generation, 0, count)
	for i := 0; i < count; i++ {
		words, err := gen.Generate(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, Generation{
			Text:  markov.JoinWords(s.tokenizer, words),
			Words: words,
		})
	}
	return out, nil
}

// Bootstrap loads the model file at modelPath. If there is no such file and
// corpusGlob is set, the archives it matches are learned, and the resulting
// model is served and written to modelPath.
func (s *ModelState) Bootstrap(modelPath, corpusGlob string, extractor *notestock.Extractor) error {
	if modelPath != "" {
		model, err := markov.DecodeFile(modelPath)
		if err == nil {
			s.SetModel(model)
			s.logger.Info("Model loaded", slog.String("path", modelPath), slog.Int("sources", model.Len()))
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if strings.TrimSpace(corpusGlob) == "" {
		s.logger.Warn("No model file and no corpus configured, starting without a model")
		return nil
	}

	texts, err := extractor.ParseGlob(corpusGlob)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}
	s.Learn(texts)
	model := s.Build()

	if modelPath != "" {
		if err = markov.EncodeFile(model, modelPath); err != nil {
			return err
		}
		s.logger.Info("Model saved", slog.String("path", modelPath))
	}
	return nil
}

// Persist writes the current model to path. It does nothing if no model has
// been built.
func (s *ModelState) Persist(path string) error {
	model := s.Model()
	if model == nil || path == "" {
		return nil
	}
	return markov.EncodeFile(model, path)
}
