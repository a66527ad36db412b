package markov

import (
	"context"
	"log/slog"
)

// GenerateStream walks the chain like Generate but delivers words one at a
// time on the returned channel. This is useful for real-time applications or
// when a cyclic model may produce very long output. The channel is closed once
// generation is complete or the context is cancelled. The Generator must not
// be used again until the channel is closed.
func (g *Generator) GenerateStream(ctx context.Context) (<-chan string, error) {
	if g.model == nil {
		return nil, ErrUninitializedModel
	}
	g.current = g.seed

	wordChan := make(chan string)

	go func() {
		defer close(wordChan)

		generated := 0
		if g.current.IsWord() {
			select {
			case <-ctx.Done():
				return
			case wordChan <- g.current.text:
			}
			generated++
		}

		for g.opts.maxLength <= 0 || generated < g.opts.maxLength {
			next := g.step()
			if !next.IsWord() {
				return
			}
			select {
			case <-ctx.Done():
				g.opts.logger.DebugContext(ctx, "Generation stream cancelled by context",
					slog.Int("generated_length", generated),
				)
				return
			case wordChan <- next.text:
			}
			generated++
		}
	}()

	return wordChan, nil
}
