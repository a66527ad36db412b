package markov

// Weighted pairs an item with a non-negative selection weight.
type Weighted[T any] struct {
	Item   T
	Weight uint32
}

// RandSource is the random source used for weighted sampling. Uint64N must
// return a uniformly distributed value in [0, n). *rand.Rand from
// math/rand/v2 satisfies it.
type RandSource interface {
	Uint64N(n uint64) uint64
}

// Choose picks one item from choices with probability proportional to its
// weight. Items with a zero weight are never chosen. It returns false if
// choices is empty or every weight is zero.
func Choose[T any](r RandSource, choices []Weighted[T]) (T, bool) {
	var zero T
	var total uint64
	for _, choice := range choices {
		total += uint64(choice.Weight)
	}
	if total == 0 {
		return zero, false
	}

	randChoice := r.Uint64N(total)
	for _, choice := range choices {
		if randChoice < uint64(choice.Weight) {
			return choice.Item, true
		}
		randChoice -= uint64(choice.Weight)
	}
	// Unreachable with a conforming RandSource; fall back to the last live item.
	for i := len(choices) - 1; i >= 0; i-- {
		if choices[i].Weight > 0 {
			return choices[i].Item, true
		}
	}
	return zero, false
}
