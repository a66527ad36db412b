package markov

import (
	"errors"
	"go/build"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fieldsTokenizer splits on whitespace and rejects texts containing "\x00",
// which lets tests control tokenization exactly.
var fieldsTokenizer = TokenizerFunc(func(text string) ([]string, error) {
	if strings.Contains(text, "\x00") {
		return nil, errors.New("NUL byte in text")
	}
	return strings.Fields(text), nil
})

// buildModel is a convenience helper that learns texts with fieldsTokenizer.
func buildModel(t testing.TB, texts ...string) *Model {
	t.Helper()
	b := NewBuilder(fieldsTokenizer)
	if failures := b.LearnMany(texts); failures != 0 {
		t.Fatalf("setup: LearnMany() reported %d failures", failures)
	}
	return b.Build()
}

// seededRand returns a deterministic random source.
func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// sequenceSource returns the queued values in order (modulo n) and then
// repeats the last one.
type sequenceSource struct {
	values []uint64
	calls  int
}

func (s *sequenceSource) Uint64N(n uint64) uint64 {
	v := s.values[min(s.calls, len(s.values)-1)]
	s.calls++
	return v % n
}

var (
	benchmarkCorpus []string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() []string {
	corpusOnce.Do(func() {
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = []string{"this is a fallback corpus for benchmarking.", "it is not very long but will prevent a crash."}
				return
			}
			benchmarkCorpus = append(benchmarkCorpus, strings.Split(string(content), "\n")...)
		}
	})
	return benchmarkCorpus
}
