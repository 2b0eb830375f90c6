package plagiarism

import (
	"math"
	"unicode/utf8"
)

// Coverage returns the percentage of text's characters that fall inside
// intervals. intervals must be sorted and disjoint. Empty text has no coverage.
func Coverage(intervals []Interval, text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}

	covered := 0
	for _, iv := range intervals {
		start, end := clamp(iv.Start, len(text)), clamp(iv.End, len(text))
		if start < 0 || start >= end {
			continue
		}
		covered += utf8.RuneCountInString(text[start:end])
	}

	return float64(covered) / float64(total) * 100
}

// Score averages the coverage of both documents and rounds to two decimals.
func Score(doc1 []Interval, text1 string, doc2 []Interval, text2 string) float64 {
	similarity := (Coverage(doc1, text1) + Coverage(doc2, text2)) / 2
	return round2(math.Max(0, math.Min(100, similarity)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Verdict classifies a similarity percentage.
func Verdict(similarity float64) string {
	if similarity < 30 {
		return "clean"
	} else if similarity < 60 {
		return "suspicious"
	} else if similarity < 85 {
		return "highly suspicious"
	}
	return "near copy"
}
