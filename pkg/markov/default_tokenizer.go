package markov

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTokenizer is a default implementation of the Tokenizer interface.
// It uses regular expressions to split text into words and punctuation. Runs
// of kanji, hiragana and katakana are split where the script changes, which
// gives a rough segmentation of Japanese text without a dictionary.
// Its behavior can be customized with functional options.
type DefaultTokenizer struct {
	separator         string
	splitRegex        *regexp.Regexp
	separatorExcRegex *regexp.Regexp
}

// Option is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithSeparator sets the string used for joining words in Join.
// Default: " "
func WithSeparator(sep string) Option {
	return func(t *DefaultTokenizer) {
		t.separator = sep
	}
}

// WithSplitRegex sets the regex string to use when splitting input text.
// Every match becomes one word.
func WithSplitRegex(splitRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.splitRegex = regexp.MustCompile(splitRegex)
	}
}

// WithSeparatorExcRegex sets the regex string to use when deciding whether to
// add a separator before a word in Join.
// Default: `^[.,!?;:)\]}、。！？」』）]`
func WithSeparatorExcRegex(splitExcRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.separatorExcRegex = regexp.MustCompile(splitExcRegex)
	}
}

// NewDefaultTokenizer creates a new tokenizer with default settings, which can be
// overridden by providing one or more Option functions.
func NewDefaultTokenizer(opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		separator: " ",
		// Kanji, hiragana and katakana runs, then latin words, then any other
		// letters, then single punctuation or symbol characters.
		splitRegex: regexp.MustCompile(`\p{Han}+|\p{Hiragana}+|[\p{Katakana}ー]+|[\p{Latin}\p{N}_']+|[\p{L}\p{M}]+|[\p{P}\p{S}]`),
		// This regex checks for characters that don't get a separator put before them.
		separatorExcRegex: regexp.MustCompile(`^[.,!?;:)\]}、。！？」』）]`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Tokenize splits text into words. It fails if text is not valid UTF-8.
func (t *DefaultTokenizer) Tokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, errors.New("text is not valid UTF-8")
	}
	return t.splitRegex.FindAllString(text, -1), nil
}

// Join concatenates words with the configured separator. No separator is put
// before punctuation or between two words of Japanese script.
func (t *DefaultTokenizer) Join(words []string) string {
	var builder strings.Builder
	for i, word := range words {
		if i > 0 && !t.separatorExcRegex.MatchString(word) && !(isCJK(words[i-1]) && isCJK(word)) {
			builder.WriteString(t.separator)
		}
		builder.WriteString(word)
	}
	return builder.String()
}

// isCJK reports whether word starts with a kanji, kana or CJK punctuation rune.
func isCJK(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) ||
		(r >= 0x3000 && r <= 0x303f) || r == 'ー' || (r >= 0xff00 && r <= 0xffef)
}
