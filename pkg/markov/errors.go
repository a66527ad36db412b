package markov

import "errors"

var (
	// ErrTokenization is returned by Builder.Learn when the tokenizer rejects a text.
	ErrTokenization = errors.New("markov: tokenization failed")
	// ErrUnknownSeed is returned when a starting word was never seen as a source token.
	ErrUnknownSeed = errors.New("markov: unknown starting word")
	// ErrUninitializedModel is returned when a Generator has no model attached.
	ErrUninitializedModel = errors.New("markov: model is not initialized")
	// ErrDecode is returned for malformed or truncated serialized models.
	ErrDecode = errors.New("markov: malformed model data")
	// ErrIO is returned when model storage cannot be opened, read or written.
	ErrIO = errors.New("markov: model storage error")
)
