package main

import (
	"context"
	"sync"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/notestock"
)

// session is the state behind the exported functions. The page holds exactly
// one, created when the module loads; every call locks it for its whole
// duration, so calls never interleave.
type session struct {
	mu      sync.Mutex
	builder *markov.Builder
	gen     *markov.Generator
}

func newSession() *session {
	return &session{
		builder: markov.NewBuilder(markov.NewDefaultTokenizer()),
		gen:     markov.NewGenerator(nil),
	}
}

// learn adds every post of a notestock archive to the pending texts. It
// reports false if the archive cannot be read.
func (s *session) learn(archive []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts, err := notestock.Parse(archive)
	if err != nil {
		return false
	}
	s.builder.LearnMany(texts)
	return true
}

// build replaces the model with one learned from the pending texts.
func (s *session) build() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.SetModel(s.builder.Build())
}

// setStartingWord makes later generations begin with word, or at the start
// of a text if word is empty. It reports false if the model never saw word.
func (s *session) setStartingWord(word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen.SetStart(word) == nil
}

// generate returns one generated text as words, or nil without a model.
func (s *session) generate() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	words, err := s.gen.Generate(context.Background())
	if err != nil {
		return nil
	}
	if words == nil {
		words = []string{}
	}
	return words
}

// download returns the encoded model, or nil without a model.
func (s *session) download() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Model() == nil {
		return nil
	}
	return markov.Encode(s.gen.Model())
}

// upload replaces the model with a decoded one. It reports false, keeping
// the current model, if data is not a valid model.
func (s *session) upload(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := markov.Decode(data)
	if err != nil {
		return false
	}
	s.gen.SetModel(model)
	return true
}
