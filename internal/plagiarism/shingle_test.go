package plagiarism

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteForceMatches is the all-pairs comparison FindMatches must reproduce.
func bruteForceMatches(tokens1, tokens2 []Token, k int) []Match {
	var matches []Match
	for i := 0; i+k <= len(tokens1); i++ {
		for j := 0; j+k <= len(tokens2); j++ {
			equal := true
			for n := 0; n < k; n++ {
				if tokens1[i+n].Text != tokens2[j+n].Text {
					equal = false
					break
				}
			}
			if equal {
				matches = append(matches, Match{
					Doc1: Interval{Start: tokens1[i].Start, End: tokens1[i+k-1].End},
					Doc2: Interval{Start: tokens2[j].Start, End: tokens2[j+k-1].End},
				})
			}
		}
	}
	return matches
}

func TestShingleWidth(t *testing.T) {
	assert.Equal(t, 5, ShingleWidth(5, 10, 20))
	assert.Equal(t, 3, ShingleWidth(5, 3, 20))
	assert.Equal(t, 2, ShingleWidth(5, 9, 2))
	assert.Equal(t, 0, ShingleWidth(5, 0, 20))
}

func TestShingles(t *testing.T) {
	tokens := Tokenize("a b c d")
	assert.Equal(t, []string{"a b", "b c", "c d"}, Shingles(tokens, 2))
	assert.Equal(t, []string{"a b c d"}, Shingles(tokens, 4))
	assert.Nil(t, Shingles(tokens, 5))
	assert.Nil(t, Shingles(tokens, 0))
}

func TestShingleIndexLookup(t *testing.T) {
	idx := BuildShingleIndex(Tokenize("x y x y z"), 2)

	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, []int{0, 2}, idx.Lookup("x y"))
	assert.Equal(t, []int{1}, idx.Lookup("y x"))
	assert.Nil(t, idx.Lookup("q r"))
}

func TestFindMatchesRecordsEveryPair(t *testing.T) {
	tokens1 := Tokenize("x y x y")
	tokens2 := Tokenize("x y")

	matches := FindMatches(tokens1, tokens2, 2)

	require.Len(t, matches, 2)
	assert.Equal(t, Match{Doc1: Interval{0, 3}, Doc2: Interval{0, 3}}, matches[0])
	assert.Equal(t, Match{Doc1: Interval{4, 7}, Doc2: Interval{0, 3}}, matches[1])
}

func TestFindMatchesAgreesWithAllPairs(t *testing.T) {
	docs := []string{
		"the cat sat on the mat and the cat sat on the hat",
		"on the mat the cat sat on the mat again and again",
		"The quick brown fox jumps over the lazy dog",
		"A quick brown fox jumps over a lazy dog while the quick brown fox jumps over",
		strings.Repeat("la ", 12),
	}

	for _, a := range docs {
		for _, b := range docs {
			t1, t2 := Tokenize(a), Tokenize(b)
			for k := 1; k <= DefaultShingleSize; k++ {
				assert.Equal(t, bruteForceMatches(t1, t2, k), FindMatches(t1, t2, k), "k=%d a=%q b=%q", k, a, b)
			}
		}
	}
}

func TestFindMatchesDegenerate(t *testing.T) {
	assert.Empty(t, FindMatches(nil, Tokenize("a b c"), 1))
	assert.Empty(t, FindMatches(Tokenize("a b"), Tokenize("a b"), 0))
	assert.Empty(t, FindMatches(Tokenize("a b"), Tokenize("a b"), 3))
}

func TestMatchSpansAgreesWithFindMatches(t *testing.T) {
	docs := []string{
		"the cat sat on the mat and the cat sat on the mat again",
		"on the mat the cat sat on the mat",
		strings.Repeat("la di ", 9),
		"The quick brown fox jumps over the lazy dog",
	}

	for _, a := range docs {
		for _, b := range docs {
			t1, t2 := Tokenize(a), Tokenize(b)
			for k := 1; k <= DefaultShingleSize; k++ {
				spans, err := MatchSpans(context.Background(), t1, t2, k)
				require.NoError(t, err)

				matches := FindMatches(t1, t2, k)
				var doc1, doc2 []Interval
				for _, m := range matches {
					doc1 = append(doc1, m.Doc1)
					doc2 = append(doc2, m.Doc2)
				}

				assert.Equal(t, len(matches), spans.Pairs)
				assert.Equal(t, MergeIntervals(doc1), MergeIntervals(spans.Doc1))
				assert.Equal(t, MergeIntervals(doc2), MergeIntervals(spans.Doc2))
				assert.LessOrEqual(t, len(spans.Doc1), len(t1))
				assert.LessOrEqual(t, len(spans.Doc2), len(t2))
			}
		}
	}
}

func TestMatchSpansStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tokens := Tokenize("one two three four five six")
	_, err := MatchSpans(ctx, tokens, tokens, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareRepetitiveTextMemory(t *testing.T) {
	// Every window of one document equals half the windows of the other, so
	// the pair count is quadratic while the spans stay linear.
	text := strings.Repeat("a b ", 1000)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	result := Compare(text, text)
	runtime.ReadMemStats(&after)

	assert.Equal(t, 1_992_008, result.RawMatches)
	assert.Equal(t, []Interval{{0, len(text) - 1}}, result.Doc1Matches)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}
