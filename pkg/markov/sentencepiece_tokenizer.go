package markov

import (
	"fmt"
	"strings"

	"github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// wordMarker is the sentencepiece prefix that marks the start of a word.
const wordMarker = "▁"

// SentencepieceTokenizer splits text into the pieces of a trained
// sentencepiece model. It is mostly useful for languages without word
// delimiters when a model trained on similar text is available.
type SentencepieceTokenizer struct {
	sp *sentencepiece.Sentencepiece
}

// NewSentencepieceTokenizer loads a sentencepiece .model file.
func NewSentencepieceTokenizer(modelPath string) (*SentencepieceTokenizer, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("sentencepiece: model path is required")
	}
	sp, err := sentencepiece.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("sentencepiece: failed to load %s: %w", modelPath, err)
	}
	return &SentencepieceTokenizer{sp: &sp}, nil
}

// Tokenize splits text into pieces, dropping the word marker.
func (s *SentencepieceTokenizer) Tokenize(text string) ([]string, error) {
	pieces := s.sp.Tokenize(text)
	words := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		word := strings.TrimPrefix(piece.Text, wordMarker)
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return words, nil
}
