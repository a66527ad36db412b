package markov

import "strings"

// Kind identifies which variant a Token holds.
type Kind uint8

const (
	// KindStart marks the Start-Of-Chain sentinel.
	KindStart Kind = iota
	// KindWord marks a regular word token.
	KindWord
	// KindEnd marks the End-Of-Chain sentinel.
	KindEnd
)

const (
	// SOCTokenText is the display text for the Start-Of-Chain token.
	SOCTokenText = "<SOC>"
	// EOCTokenText is the display text for the End-Of-Chain token.
	EOCTokenText = "<EOC>"
)

// Token is a single symbol of the chain: the start sentinel, the end sentinel
// or a word. Tokens are plain values; two tokens are equal when they hold the
// same variant and the same text, so they can be compared with == and used as
// map keys.
type Token struct {
	kind Kind
	text string
}

var (
	// StartToken is the Start-Of-Chain sentinel.
	StartToken = Token{kind: KindStart}
	// EndToken is the End-Of-Chain sentinel.
	EndToken = Token{kind: KindEnd}
)

// NewWord returns the word token for text.
func NewWord(text string) Token {
	return Token{kind: KindWord, text: text}
}

// Kind returns the variant of the token.
func (t Token) Kind() Kind { return t.kind }

// IsWord reports whether t is a word token.
func (t Token) IsWord() bool { return t.kind == KindWord }

// Text returns the word held by t, or "" for the sentinels.
func (t Token) Text() string { return t.text }

func (t Token) String() string {
	switch t.kind {
	case KindStart:
		return SOCTokenText
	case KindEnd:
		return EOCTokenText
	default:
		return t.text
	}
}

// compareTokens orders Start before every word, words by their bytes, and
// End after every word.
func compareTokens(a, b Token) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	return strings.Compare(a.text, b.text)
}
