/*
Package markov provides a small, in-memory toolkit for learning first-order
(bigram) Markov chains over word tokens and sampling new text from them.

A Builder tokenizes texts and counts adjacent token pairs into a Model. A
Model is frozen once built and may be shared by any number of Generators,
each of which walks the chain with weighted random sampling. Models are
persisted with a compact, byte-order independent binary codec (see Encode and
Decode).

Builders and Generators are not safe for concurrent use. A built Model is
read-only and safe to read from multiple goroutines.
*/
package markov
