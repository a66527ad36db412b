package markov

import (
	"fmt"
	"strings"
)

// Tokenizer is an interface that defines the contract for splitting input text
// into words. This allows the chain logic to be independent of the specific
// segmentation strategy (whitespace languages, Japanese, subword models...).
type Tokenizer interface {
	// Tokenize splits text into an ordered sequence of words. It returns an
	// error if the text cannot be tokenized.
	Tokenize(text string) ([]string, error)
}

// TokenizerFunc adapts an ordinary function to the Tokenizer interface.
type TokenizerFunc func(text string) ([]string, error)

// Tokenize calls f(text).
func (f TokenizerFunc) Tokenize(text string) ([]string, error) {
	return f(text)
}

// Joiner is implemented by tokenizers that know how to turn generated words
// back into display text.
type Joiner interface {
	Join(words []string) string
}

// JoinWords turns generated words into display text, using t's Join if it has
// one and single spaces otherwise.
func JoinWords(t Tokenizer, words []string) string {
	if j, ok := t.(Joiner); ok {
		return j.Join(words)
	}
	return strings.Join(words, " ")
}

// Tokenizer kinds accepted by NewTokenizer.
const (
	// TokenizerDefault selects the regexp based DefaultTokenizer.
	TokenizerDefault = "default"
	// TokenizerProse selects ProseTokenizer.
	TokenizerProse = "prose"
	// TokenizerSentencepiece selects SentencepieceTokenizer, loaded from a
	// .model file.
	TokenizerSentencepiece = "sentencepiece"
)

// NewTokenizer returns the tokenizer registered under kind. modelPath is only
// used by the sentencepiece tokenizer. An empty kind selects the default.
func NewTokenizer(kind, modelPath string) (Tokenizer, error) {
	switch kind {
	case "", TokenizerDefault:
		return NewDefaultTokenizer(), nil
	case TokenizerProse:
		return NewProseTokenizer(), nil
	case TokenizerSentencepiece:
		return NewSentencepieceTokenizer(modelPath)
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", kind)
	}
}
