package markov

import (
	"fmt"
	"math"
	"slices"
	"unicode/utf8"
)

// Model is a learned transition table: for every source token, the tokens
// observed directly after it and how many times each pair was seen.
//
// A Model returned by Builder.Build, Decode or ModelFromTransitions is frozen;
// none of its methods mutate it, so it can be shared between goroutines.
type Model struct {
	chains map[Token]map[Token]uint32
}

// ModelStats holds aggregated statistics for a single Model.
type ModelStats struct {
	Sources        int    `json:"sources"`         // The number of distinct source tokens.
	TotalChains    int    `json:"total_chains"`    // The number of unique source->next links.
	TotalFrequency uint64 `json:"total_frequency"` // The sum of all link counts; the number of learned transitions.
	StartingTokens int    `json:"starting_tokens"` // The number of distinct tokens that can follow <SOC>.
	VocabSize      int    `json:"vocab_size"`      // The number of distinct words in the model.
}

func newModel() *Model {
	return &Model{chains: make(map[Token]map[Token]uint32)}
}

// ModelFromTransitions builds a Model from a raw transition table. The table
// is copied. It returns an error if the table breaks a Model invariant: an
// empty successor set, a zero count, or an empty or invalid UTF-8 word.
func ModelFromTransitions(transitions map[Token]map[Token]uint32) (*Model, error) {
	m := newModel()
	for from, next := range transitions {
		if err := validateToken(from); err != nil {
			return nil, err
		}
		if len(next) == 0 {
			return nil, fmt.Errorf("source %q has no successors", from)
		}
		inner := make(map[Token]uint32, len(next))
		for to, count := range next {
			if err := validateToken(to); err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, fmt.Errorf("link %q -> %q has a zero count", from, to)
			}
			inner[to] = count
		}
		m.chains[from] = inner
	}
	return m, nil
}

func validateToken(t Token) error {
	switch t.kind {
	case KindStart, KindEnd:
		if t.text != "" {
			return fmt.Errorf("sentinel token carries text %q", t.text)
		}
	case KindWord:
		if t.text == "" {
			return fmt.Errorf("empty word token")
		}
		if !utf8.ValidString(t.text) {
			return fmt.Errorf("word token %q is not valid UTF-8", t.text)
		}
	default:
		return fmt.Errorf("unknown token kind %d", t.kind)
	}
	return nil
}

// increment adds one observation of from -> to, saturating at math.MaxUint32.
func (m *Model) increment(from, to Token) {
	next, ok := m.chains[from]
	if !ok {
		next = make(map[Token]uint32)
		m.chains[from] = next
	}
	if c := next[to]; c < math.MaxUint32 {
		next[to] = c + 1
	}
}

// Len returns the number of source tokens in the model.
func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return len(m.chains)
}

// Has reports whether from was ever observed as a source token.
func (m *Model) Has(from Token) bool {
	if m == nil {
		return false
	}
	_, ok := m.chains[from]
	return ok
}

// Count returns how many times to was observed directly after from.
func (m *Model) Count(from, to Token) uint32 {
	if m == nil {
		return 0
	}
	return m.chains[from][to]
}

// Successors returns the tokens observed after from with their counts,
// ordered by token. It returns nil if from is not a source token.
func (m *Model) Successors(from Token) []Weighted[Token] {
	if m == nil {
		return nil
	}
	next, ok := m.chains[from]
	if !ok {
		return nil
	}
	out := make([]Weighted[Token], 0, len(next))
	for to, count := range next {
		out = append(out, Weighted[Token]{Item: to, Weight: count})
	}
	slices.SortFunc(out, func(a, b Weighted[Token]) int {
		return compareTokens(a.Item, b.Item)
	})
	return out
}

// Sources returns every source token of the model in token order.
func (m *Model) Sources() []Token {
	if m == nil {
		return nil
	}
	out := make([]Token, 0, len(m.chains))
	for from := range m.chains {
		out = append(out, from)
	}
	slices.SortFunc(out, compareTokens)
	return out
}

// Equal reports whether m and other hold exactly the same links and counts.
// A nil Model equals an empty one.
func (m *Model) Equal(other *Model) bool {
	if m.Len() != other.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for from, next := range m.chains {
		otherNext, ok := other.chains[from]
		if !ok || len(otherNext) != len(next) {
			return false
		}
		for to, count := range next {
			if otherCount, ok := otherNext[to]; !ok || otherCount != count {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := newModel()
	if m == nil {
		return c
	}
	for from, next := range m.chains {
		inner := make(map[Token]uint32, len(next))
		for to, count := range next {
			inner[to] = count
		}
		c.chains[from] = inner
	}
	return c
}

// Stats returns a snapshot of statistics for the model.
func (m *Model) Stats() ModelStats {
	var stats ModelStats
	if m == nil {
		return stats
	}
	vocab := make(map[string]struct{})
	stats.Sources = len(m.chains)
	for from, next := range m.chains {
		if from.IsWord() {
			vocab[from.text] = struct{}{}
		}
		stats.TotalChains += len(next)
		for to, count := range next {
			stats.TotalFrequency += uint64(count)
			if to.IsWord() {
				vocab[to.text] = struct{}{}
			}
		}
	}
	stats.StartingTokens = len(m.chains[StartToken])
	stats.VocabSize = len(vocab)
	return stats
}

// Pruned returns a copy of the model without the links whose count is less
// than or equal to minFreq. Sources left without successors are dropped. This
// is useful for reducing the size of a model by removing rare, and often
// noisy, transitions. The receiver is not modified.
func (m *Model) Pruned(minFreq uint32) *Model {
	p := newModel()
	if m == nil {
		return p
	}
	for from, next := range m.chains {
		var inner map[Token]uint32
		for to, count := range next {
			if count <= minFreq {
				continue
			}
			if inner == nil {
				inner = make(map[Token]uint32)
			}
			inner[to] = count
		}
		if inner != nil {
			p.chains[from] = inner
		}
	}
	return p
}
