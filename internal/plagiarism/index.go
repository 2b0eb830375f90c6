package plagiarism

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ShingleIndex maps the hash of every k-token phrase of a document to the
// start positions at which that phrase occurs.
type ShingleIndex struct {
	k       int
	phrases []string
	buckets map[uint64][]int
}

// BuildShingleIndex indexes all k-gram phrases of tokens. It returns an empty
// index when k < 1 or there are fewer than k tokens.
func BuildShingleIndex(tokens []Token, k int) *ShingleIndex {
	idx := &ShingleIndex{
		k:       k,
		buckets: make(map[uint64][]int),
	}
	idx.phrases = Shingles(tokens, k)

	for pos, phrase := range idx.phrases {
		h := xxhash.Sum64String(phrase)
		idx.buckets[h] = append(idx.buckets[h], pos)
	}

	return idx
}

// Lookup returns the positions whose phrase equals phrase, in ascending order.
// Hash collisions are filtered out by comparing the phrases themselves.
func (idx *ShingleIndex) Lookup(phrase string) []int {
	var positions []int
	idx.each(phrase, func(pos int) {
		positions = append(positions, pos)
	})
	return positions
}

// each calls fn for every position holding phrase and returns how many there were.
func (idx *ShingleIndex) each(phrase string, fn func(pos int)) int {
	n := 0
	for _, pos := range idx.buckets[xxhash.Sum64String(phrase)] {
		if idx.phrases[pos] == phrase {
			fn(pos)
			n++
		}
	}
	return n
}

// Len returns the number of indexed shingles.
func (idx *ShingleIndex) Len() int {
	return len(idx.phrases)
}

// Shingles returns the space-joined phrase for every window of k consecutive tokens.
func Shingles(tokens []Token, k int) []string {
	if k < 1 || len(tokens) < k {
		return nil
	}

	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}

	phrases := make([]string, 0, len(tokens)-k+1)
	for i := 0; i <= len(tokens)-k; i++ {
		phrases = append(phrases, strings.Join(words[i:i+k], " "))
	}
	return phrases
}
