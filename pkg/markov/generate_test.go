package markov

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReproducesSingleText(t *testing.T) {
	text := "the quick brown fox jumps"
	g := NewGenerator(buildModel(t, text), WithRand(seededRand(42)))

	for i := 0; i < 3; i++ {
		words, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, strings.Fields(text), words)
	}
}

func TestGenerateUninitialized(t *testing.T) {
	g := NewGenerator(nil)
	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, ErrUninitializedModel)

	_, err = g.GenerateStream(context.Background())
	assert.ErrorIs(t, err, ErrUninitializedModel)

	// Without a table no word can be a seed.
	err = g.SetStart("fish")
	assert.ErrorIs(t, err, ErrUnknownSeed)
	assert.NotErrorIs(t, err, ErrUninitializedModel)
	assert.NoError(t, g.SetStart(""))
}

func TestGenerateFromSeed(t *testing.T) {
	model := buildModel(t, "one fish two fish", "red fish blue fish")
	g := NewGenerator(model, WithRand(seededRand(7)))

	testCases := []struct {
		name        string
		seed        string
		expectError error
		check       func(t *testing.T, words []string)
	}{
		{
			name: "Seed word is emitted first",
			seed: "blue",
			check: func(t *testing.T, words []string) {
				require.GreaterOrEqual(t, len(words), 2)
				assert.Equal(t, []string{"blue", "fish"}, words[:2])
			},
		},
		{
			name: "Empty seed starts from SOC",
			seed: "",
			check: func(t *testing.T, words []string) {
				require.NotEmpty(t, words)
				assert.Contains(t, []string{"one", "red"}, words[0])
			},
		},
		{
			name:        "Unknown seed",
			seed:        "green",
			expectError: ErrUnknownSeed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.SetStart(tc.seed)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			words, err := g.Generate(context.Background())
			require.NoError(t, err)
			tc.check(t, words)
			assert.Equal(t, "fish", words[len(words)-1], "every text ends with fish")
		})
	}
}

func TestSetStartPositionsCurrent(t *testing.T) {
	model := buildModel(t, "a b c")
	g := NewGenerator(model)

	require.NoError(t, g.SetStart("b"))
	assert.Equal(t, NewWord("b"), g.Current())

	// "c" is a source (c -> <EOC>), the final word is a valid seed.
	require.NoError(t, g.SetStart("c"))
	words, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, words)

	// A failing SetStart keeps the previous start.
	assert.ErrorIs(t, g.SetStart("zzz"), ErrUnknownSeed)
	words, err = g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, words)

	require.NoError(t, g.SetStart(""))
	assert.Equal(t, StartToken, g.Current())
}

func TestGenerateResetsBetweenCalls(t *testing.T) {
	g := NewGenerator(buildModel(t, "x y"), WithRand(seededRand(3)))
	require.NoError(t, g.SetStart("y"))

	for i := 0; i < 2; i++ {
		words, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, words)
		assert.Equal(t, EndToken, g.Current())
	}
}

func TestGenerateEmptyOutput(t *testing.T) {
	g := NewGenerator(buildModel(t, ""))
	words, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestGenerateDeadEndIsImplicitEnd(t *testing.T) {
	a, b := NewWord("a"), NewWord("b")
	// "b" is never a source.
	model, err := ModelFromTransitions(map[Token]map[Token]uint32{
		StartToken: {a: 1},
		a:          {b: 1},
	})
	require.NoError(t, err)

	words, err := NewGenerator(model).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, words)
}

func TestGenerateMaxLengthOnCycle(t *testing.T) {
	a := NewWord("a")
	// a -> a forever: only an external cap stops it.
	model, err := ModelFromTransitions(map[Token]map[Token]uint32{
		StartToken: {a: 1},
		a:          {a: 1},
	})
	require.NoError(t, err)

	words, err := NewGenerator(model, WithMaxLength(5)).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "a", "a", "a"}, words)
}

func TestGenerateCancelled(t *testing.T) {
	a := NewWord("a")
	model, err := ModelFromTransitions(map[Token]map[Token]uint32{
		StartToken: {a: 1},
		a:          {a: 1},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = NewGenerator(model).Generate(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateStream(t *testing.T) {
	g := NewGenerator(buildModel(t, "one fish two fish"), WithRand(seededRand(1)))

	t.Run("Successful stream", func(t *testing.T) {
		require.NoError(t, g.SetStart("two"))
		stream, err := g.GenerateStream(context.Background())
		require.NoError(t, err)

		var words []string
		for word := range stream {
			words = append(words, word)
		}
		assert.Equal(t, "two fish", strings.Join(words, " ")[:8])
	})

	t.Run("Stream cancellation", func(t *testing.T) {
		a := NewWord("a")
		cyclic, err := ModelFromTransitions(map[Token]map[Token]uint32{
			StartToken: {a: 1},
			a:          {a: 1},
		})
		require.NoError(t, err)

		ctxCancel, cancel := context.WithCancel(context.Background())
		defer cancel()

		stream, err := NewGenerator(cyclic).GenerateStream(ctxCancel)
		require.NoError(t, err)

		// Read one word, then cancel
		<-stream
		cancel()

		// The channel should now close quickly
		timeout := time.After(100 * time.Millisecond)
		for {
			select {
			case _, ok := <-stream:
				if !ok {
					return
				}
			case <-timeout:
				t.Fatal("stream did not close after context cancellation")
			}
		}
	})
}

func BenchmarkGenerate(b *testing.B) {
	builder := NewBuilder(NewDefaultTokenizer())
	builder.LearnMany(createBenchmarkCorpus())
	model := builder.Build()
	g := NewGenerator(model, WithRand(seededRand(1)), WithMaxLength(50))
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Generate(ctx); err != nil {
			b.Fatalf("Generate() failed: %v", err)
		}
	}
}
