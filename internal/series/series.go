// Package series derives chart-ready series from a loaded dataset.
package series

import (
	"math"
	"strconv"

	"examdash/internal/dataset"
	"examdash/internal/histogram"
)

// RadarMax is the upper bound of every subject radar axis.
const RadarMax = 120

// Distribution holds one histogram per sitting over shared buckets.
type Distribution struct {
	Labels  []string `json:"labels"`
	Monthly []int    `json:"monthly"`
	Midterm []int    `json:"midterm"`
}

// SubjectSeries holds subject averages aligned with SubjectStats order.
type SubjectSeries struct {
	Labels  []string  `json:"labels"`
	Monthly []float64 `json:"monthly"`
	Midterm []float64 `json:"midterm"`
	Delta   []float64 `json:"delta"`
	Max     float64   `json:"max"`
}

// ClassSeries holds midterm class averages aligned with ClassStats order.
// ValueLabels carries each value rounded to one decimal.
type ClassSeries struct {
	Labels      []string  `json:"labels"`
	Values      []float64 `json:"values"`
	ValueLabels []string  `json:"value_labels"`
}

// Aggregates bundles every overview series.
type Aggregates struct {
	Distribution Distribution  `json:"distribution"`
	Subjects     SubjectSeries `json:"subjects"`
	Classes      ClassSeries   `json:"classes"`
	Summary      Summary       `json:"summary"`
}

// Build derives all overview series from ds.
func Build(ds *dataset.Dataset) Aggregates {
	return Aggregates{
		Distribution: BuildDistribution(ds),
		Subjects:     SubjectAverages(ds),
		Classes:      ClassAverages(ds),
		Summary:      Summarize(ds),
	}
}

// BuildDistribution bins both sittings' total scores with ScoreEdges.
func BuildDistribution(ds *dataset.Dataset) Distribution {
	dist := ds.GlobalStats.ScoreDistribution
	return Distribution{
		Labels:  histogram.Labels(histogram.ScoreEdges),
		Monthly: histogram.Count(dist.Monthly, histogram.ScoreEdges),
		Midterm: histogram.Count(dist.Midterm, histogram.ScoreEdges),
	}
}

// SubjectAverages lists each subject's averages and midterm-minus-monthly
// delta in display order.
func SubjectAverages(ds *dataset.Dataset) SubjectSeries {
	n := len(ds.SubjectStats)
	s := SubjectSeries{
		Labels:  make([]string, n),
		Monthly: make([]float64, n),
		Midterm: make([]float64, n),
		Delta:   make([]float64, n),
		Max:     RadarMax,
	}
	for i, st := range ds.SubjectStats {
		s.Labels[i] = st.Subject
		s.Monthly[i] = st.AvgMonthly
		s.Midterm[i] = st.AvgMidterm
		s.Delta[i] = st.AvgMidterm - st.AvgMonthly
	}
	return s
}

// ClassAverages lists each class's midterm average with a one-decimal label.
func ClassAverages(ds *dataset.Dataset) ClassSeries {
	n := len(ds.ClassStats)
	c := ClassSeries{
		Labels:      make([]string, n),
		Values:      make([]float64, n),
		ValueLabels: make([]string, n),
	}
	for i, st := range ds.ClassStats {
		c.Labels[i] = string(st.ClassLabel)
		c.Values[i] = st.AvgMidterm
		c.ValueLabels[i] = OneDecimal(st.AvgMidterm)
	}
	return c
}

// OneDecimal formats v rounded half away from zero to one decimal.
func OneDecimal(v float64) string {
	r := math.Round(v*10) / 10
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}
