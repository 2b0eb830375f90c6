package plagiarism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeIntervals(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{"empty", nil, []Interval{}},
		{"single", []Interval{{2, 4}}, []Interval{{2, 4}}},
		{"overlapping", []Interval{{0, 10}, {5, 15}}, []Interval{{0, 15}}},
		{"touching", []Interval{{0, 5}, {5, 8}}, []Interval{{0, 8}}},
		{"disjoint", []Interval{{10, 12}, {0, 3}}, []Interval{{0, 3}, {10, 12}}},
		{"nested", []Interval{{0, 20}, {3, 5}, {8, 9}}, []Interval{{0, 20}}},
		{"duplicates", []Interval{{4, 9}, {4, 9}, {4, 9}}, []Interval{{4, 9}}},
		{"unsorted chain", []Interval{{20, 30}, {0, 10}, {9, 21}, {40, 41}}, []Interval{{0, 30}, {40, 41}}},
		{"drops empty", []Interval{{3, 3}, {5, 4}, {1, 2}}, []Interval{{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeIntervals(tt.in))
		})
	}
}

func TestMergeIntervalsInvariants(t *testing.T) {
	in := []Interval{{30, 35}, {0, 4}, {2, 6}, {12, 14}, {6, 7}, {13, 20}, {50, 60}, {55, 58}}
	original := append([]Interval(nil), in...)

	merged := MergeIntervals(in)

	assert.Equal(t, original, in, "input must not be modified")
	for i := 1; i < len(merged); i++ {
		assert.Less(t, merged[i-1].End, merged[i].Start)
	}
	assert.Equal(t, merged, MergeIntervals(merged), "merging is idempotent")
	assert.Equal(t, coveredPositions(in), coveredPositions(merged))
}

func coveredPositions(intervals []Interval) map[int]bool {
	covered := make(map[int]bool)
	for _, iv := range intervals {
		for p := iv.Start; p < iv.End; p++ {
			covered[p] = true
		}
	}
	return covered
}
