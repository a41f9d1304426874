// Package histogram bins raw scores into fixed, half-open buckets.
package histogram

import "strconv"

// ScoreEdges are the total-score bucket edges shared by both sittings.
var ScoreEdges = []float64{0, 300, 350, 400, 450, 500, 550, 600}

// Count returns len(edges)-1 bucket counts. Bucket i covers
// [edges[i], edges[i+1]); values outside [edges[0], edges[k]) are dropped.
// A nil values slice yields all zeros.
func Count(values []float64, edges []float64) []int {
	if len(edges) < 2 {
		return []int{}
	}

	counts := make([]int, len(edges)-1)
	for _, v := range values {
		for i := 0; i < len(counts); i++ {
			if v >= edges[i] && v < edges[i+1] {
				counts[i]++
				break
			}
		}
	}
	return counts
}

// Labels names each bucket as "lower-upper".
func Labels(edges []float64) []string {
	if len(edges) < 2 {
		return []string{}
	}

	labels := make([]string, len(edges)-1)
	for i := range labels {
		labels[i] = format(edges[i]) + "-" + format(edges[i+1])
	}
	return labels
}

// InRange counts the values that land in some bucket.
func InRange(values []float64, edges []float64) int {
	if len(edges) < 2 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v >= edges[0] && v < edges[len(edges)-1] {
			n++
		}
	}
	return n
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
