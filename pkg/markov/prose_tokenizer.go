package markov

import (
	"fmt"

	"github.com/jdkato/prose/v2"
)

// ProseTokenizer splits English text with the prose tokenizer, which handles
// contractions, abbreviations and URLs better than a plain regular expression.
// Tagging, entity extraction and sentence segmentation are disabled.
type ProseTokenizer struct{}

// NewProseTokenizer returns a ProseTokenizer.
func NewProseTokenizer() *ProseTokenizer {
	return &ProseTokenizer{}
}

// Tokenize splits text into prose tokens.
func (p *ProseTokenizer) Tokenize(text string) ([]string, error) {
	doc, err := prose.NewDocument(
		text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("prose: %w", err)
	}
	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	return words, nil
}

// Join joins words with single spaces, without a space before punctuation.
func (p *ProseTokenizer) Join(words []string) string {
	return NewDefaultTokenizer().Join(words)
}
