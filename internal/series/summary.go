package series

import (
	"github.com/montanaflynn/stats"

	"examdash/internal/dataset"
)

// SittingSummary describes the total scores of one sitting.
type SittingSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P90    float64 `json:"p90"`
}

// Summary is the global summary card.
type Summary struct {
	TotalStudents int            `json:"total_students"`
	Monthly       SittingSummary `json:"monthly"`
	Midterm       SittingSummary `json:"midterm"`
	MeanChange    float64        `json:"mean_change"`
}

// Summarize computes descriptive statistics over both score distributions.
// TotalStudents falls back to the roster size when global stats omit it.
func Summarize(ds *dataset.Dataset) Summary {
	total := ds.GlobalStats.TotalStudents
	if total == 0 {
		total = len(ds.Students)
	}

	s := Summary{
		TotalStudents: total,
		Monthly:       describe(ds.GlobalStats.ScoreDistribution.Monthly),
		Midterm:       describe(ds.GlobalStats.ScoreDistribution.Midterm),
	}
	s.MeanChange = s.Midterm.Mean - s.Monthly.Mean
	return s
}

func describe(values []float64) SittingSummary {
	if len(values) == 0 {
		return SittingSummary{}
	}

	data := stats.Float64Data(values)
	out := SittingSummary{Count: data.Len()}

	// Errors only signal empty input, which is excluded above.
	out.Mean, _ = stats.Mean(data)
	out.Median, _ = stats.Median(data)
	out.StdDev, _ = stats.StandardDeviation(data)
	out.Min, _ = stats.Min(data)
	out.Max, _ = stats.Max(data)
	out.P90, _ = stats.Percentile(data, 90)

	out.Mean, _ = stats.Round(out.Mean, 2)
	out.StdDev, _ = stats.Round(out.StdDev, 2)
	return out
}
