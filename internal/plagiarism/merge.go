package plagiarism

import "sort"

// MergeIntervals coalesces overlapping or touching intervals into a sorted,
// pairwise-disjoint list covering the same positions. Empty intervals cover
// nothing and are dropped. The input slice is not modified.
func MergeIntervals(intervals []Interval) []Interval {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Start < iv.End {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return []Interval{}
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Interval{sorted[0]}
	for _, curr := range sorted[1:] {
		last := &merged[len(merged)-1]
		if curr.Start <= last.End {
			if curr.End > last.End {
				last.End = curr.End
			}
			continue
		}
		merged = append(merged, curr)
	}

	return merged
}
