package markov

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
)

// generatorOptions holds the configurable parameters of a Generator.
type generatorOptions struct {
	rand      RandSource
	maxLength int
	logger    *slog.Logger
}

// GeneratorOption is a function that configures a Generator. It's used as a
// variadic argument to NewGenerator.
type GeneratorOption func(*generatorOptions)

// WithRand sets the random source used for sampling. Tests use it to inject a
// seeded or deterministic source. By default a randomly seeded PCG is used.
func WithRand(r RandSource) GeneratorOption {
	return func(o *generatorOptions) { o.rand = r }
}

// WithMaxLength caps the number of words a single Generate call may return.
// A value of 0, the default, leaves generation unbounded: a model containing
// a cycle of words may then generate for an arbitrarily long time.
func WithMaxLength(n int) GeneratorOption {
	return func(o *generatorOptions) { o.maxLength = n }
}

// WithLogger sets the logger for the Generator. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(o *generatorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Generator walks a Model by weighted random sampling. It holds the current
// position of one generation session, so a Generator must not be used from
// several goroutines at once; create one Generator per session instead, they
// can all share the same Model.
type Generator struct {
	model   *Model
	seed    Token
	current Token
	opts    generatorOptions
}

// NewGenerator creates a Generator over model. model may be nil, in which case
// Generate fails with ErrUninitializedModel until SetModel is called.
func NewGenerator(model *Model, opts ...GeneratorOption) *Generator {
	options := generatorOptions{
		maxLength: 0,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.rand == nil {
		options.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		model:   model,
		seed:    StartToken,
		current: StartToken,
		opts:    options,
	}
}

// SetModel replaces the model and resets the starting word to <SOC>.
func (g *Generator) SetModel(model *Model) {
	g.model = model
	g.seed = StartToken
	g.current = StartToken
}

// Model returns the model attached to the Generator, or nil.
func (g *Generator) Model() *Model {
	return g.model
}

// Current returns the token the Generator is positioned on.
func (g *Generator) Current() Token {
	return g.current
}

// SetStart chooses where the next generations begin. An empty seed starts
// from <SOC>. Otherwise the seed must have been observed as a source word,
// or ErrUnknownSeed is returned and the previous start is kept.
func (g *Generator) SetStart(seed string) error {
	if seed == "" {
		g.seed = StartToken
		g.current = StartToken
		return nil
	}
	token := NewWord(seed)
	if !g.model.Has(token) {
		return fmt.Errorf("%w: %q", ErrUnknownSeed, seed)
	}
	g.seed = token
	g.current = token
	return nil
}

// Generate walks the chain from the starting token until <EOC> is drawn or
// the current token has no successors, and returns the visited words in
// order. A starting word set with SetStart is the first word of the result.
// The context is checked between steps.
func (g *Generator) Generate(ctx context.Context) ([]string, error) {
	if g.model == nil {
		return nil, ErrUninitializedModel
	}
	g.current = g.seed

	var words []string
	if g.current.IsWord() {
		words = append(words, g.current.text)
	}

	for g.opts.maxLength <= 0 || len(words) < g.opts.maxLength {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		next := g.step()
		if !next.IsWord() {
			g.opts.logger.DebugContext(ctx, "Generation terminated by EOC token",
				slog.Int("generated_length", len(words)),
			)
			return words, nil
		}
		words = append(words, next.text)
	}

	g.opts.logger.DebugContext(ctx, "Generation terminated by reaching maxLength",
		slog.Int("max_length", g.opts.maxLength),
	)
	return words, nil
}

// step advances current by one weighted draw. A token without successors is
// treated as an implicit transition to <EOC>.
func (g *Generator) step() Token {
	next, ok := Choose(g.opts.rand, g.model.Successors(g.current))
	if !ok {
		next = EndToken
	}
	g.current = next
	return next
}
