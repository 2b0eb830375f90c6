package plagiarism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoverage(t *testing.T) {
	tests := []struct {
		name      string
		intervals []Interval
		text      string
		want      float64
	}{
		{"empty text", []Interval{{0, 4}}, "", 0},
		{"no intervals", nil, "abcd", 0},
		{"full", []Interval{{0, 4}}, "abcd", 100},
		{"half", []Interval{{0, 2}}, "abcd", 50},
		{"two spans", []Interval{{0, 1}, {3, 4}}, "abcd", 50},
		{"clamped past end", []Interval{{2, 40}}, "abcd", 50},
		// "é" is two bytes but one character.
		{"counts characters", []Interval{{0, 2}}, "éabc", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Coverage(tt.intervals, tt.text), 1e-9)
		})
	}
}

func TestScore(t *testing.T) {
	t.Run("mean of both coverages", func(t *testing.T) {
		got := Score([]Interval{{0, 4}}, "abcd", []Interval{{0, 1}}, "abcd")
		assert.Equal(t, 62.5, got)
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		// 1/3 and 0 average to 16.666...
		got := Score([]Interval{{0, 1}}, "abc", nil, "xyz")
		assert.Equal(t, 16.67, got)
	})

	t.Run("empty documents", func(t *testing.T) {
		assert.Equal(t, 0.0, Score(nil, "", nil, ""))
	})
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		similarity float64
		want       string
	}{
		{0, "clean"},
		{29.99, "clean"},
		{30, "suspicious"},
		{59.99, "suspicious"},
		{60, "highly suspicious"},
		{84.99, "highly suspicious"},
		{85, "near copy"},
		{100, "near copy"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Verdict(tt.similarity), "similarity %.2f", tt.similarity)
	}
}
