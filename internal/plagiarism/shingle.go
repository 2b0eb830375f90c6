package plagiarism

import "context"

// DefaultShingleSize is the widest k-gram compared between two documents.
const DefaultShingleSize = 5

// Interval is a half-open byte range [Start, End) in one document.
type Interval struct {
	Start int `json:"start" bson:"start"`
	End   int `json:"end" bson:"end"`
}

// Len returns the number of bytes covered by the interval.
func (iv Interval) Len() int {
	return iv.End - iv.Start
}

// Match pairs the spans of two documents holding the same k-token phrase.
type Match struct {
	Doc1 Interval
	Doc2 Interval
}

// ShingleWidth returns min(maxK, n1, n2). A result below 1 means the
// documents cannot be compared.
func ShingleWidth(maxK, n1, n2 int) int {
	k := maxK
	if n1 < k {
		k = n1
	}
	if n2 < k {
		k = n2
	}
	return k
}

// FindMatches records a Match for every pair (i, j) where the k tokens starting
// at tokens1[i] spell the same phrase as the k tokens starting at tokens2[j].
// Matches are ordered by i, then j, and are not deduplicated. The list grows
// with the product of repeated phrases; the engine uses MatchSpans instead.
func FindMatches(tokens1, tokens2 []Token, k int) []Match {
	if k < 1 || len(tokens1) < k || len(tokens2) < k {
		return nil
	}

	index := BuildShingleIndex(tokens2, k)
	var matches []Match

	for i, phrase := range Shingles(tokens1, k) {
		index.each(phrase, func(j int) {
			matches = append(matches, Match{
				Doc1: windowSpan(tokens1, i, k),
				Doc2: windowSpan(tokens2, j, k),
			})
		})
	}

	return matches
}

// Spans holds the per-document spans of the matched windows.
type Spans struct {
	Doc1 []Interval
	Doc2 []Interval
	// Pairs is the number of (i, j) matches FindMatches would record.
	Pairs int
}

// MatchSpans collects the span of every doc-1 window with at least one equal
// doc-2 window and the span of every doc-2 window equal to some doc-1 window.
// Each window is listed once, so merging either list gives the same result as
// merging the corresponding side of FindMatches. ctx is checked once per doc-1
// window.
func MatchSpans(ctx context.Context, tokens1, tokens2 []Token, k int) (Spans, error) {
	var spans Spans
	if k < 1 || len(tokens1) < k || len(tokens2) < k {
		return spans, nil
	}

	index := BuildShingleIndex(tokens2, k)
	seen := make(map[string]int)

	for i, phrase := range Shingles(tokens1, k) {
		if err := ctx.Err(); err != nil {
			return Spans{}, err
		}

		n, ok := seen[phrase]
		if !ok {
			n = index.each(phrase, func(j int) {
				spans.Doc2 = append(spans.Doc2, windowSpan(tokens2, j, k))
			})
			seen[phrase] = n
		}
		if n == 0 {
			continue
		}
		spans.Pairs += n
		spans.Doc1 = append(spans.Doc1, windowSpan(tokens1, i, k))
	}

	return spans, nil
}

func windowSpan(tokens []Token, start, k int) Interval {
	return Interval{Start: tokens[start].Start, End: tokens[start+k-1].End}
}
