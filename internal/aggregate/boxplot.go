package aggregate

import (
	"math"
	"sort"

	"github.com/paveg/tabula/internal/common"
	"github.com/paveg/tabula/internal/series"
)

// Box holds the five whisker/quartile values of one category:
// low, Q1, median, Q3, high.
type Box [5]float64

// Outlier is a value outside its category's fences.
type Outlier struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// BoxplotSeries is the result of a boxplot chart.
type BoxplotSeries struct {
	Categories []string  `json:"categories"`
	Boxes      []Box     `json:"boxes"`
	Outliers   []Outlier `json:"outliers"`
}

// BoxStats is the summary of one category.
type BoxStats struct {
	Q1, Median, Q3 float64
	LowerFence     float64
	UpperFence     float64
	Low, High      float64
	Outliers       []float64
}

func boxplot(x, y *series.Column, limits Limits) *BoxplotSeries {
	byCategory := make(map[string][]float64)
	firstValue := make(map[string]any)
	for i := 0; i < x.Len(); i++ {
		if x.IsNull(i) {
			continue
		}
		v, ok := numberAt(y, i)
		if !ok {
			continue
		}
		label := x.Text(i)
		if _, seen := firstValue[label]; !seen {
			firstValue[label] = x.Value(i)
		}
		byCategory[label] = append(byCategory[label], v)
	}

	categories := make([]string, 0, len(byCategory))
	for label := range byCategory {
		categories = append(categories, label)
	}
	sort.Slice(categories, func(i, j int) bool {
		return compareValues(firstValue[categories[i]], firstValue[categories[j]]) < 0
	})
	if limits.BoxplotCategoryLimit > 0 && len(categories) > limits.BoxplotCategoryLimit {
		categories = categories[:limits.BoxplotCategoryLimit]
	}

	out := &BoxplotSeries{
		Categories: categories,
		Boxes:      make([]Box, len(categories)),
		Outliers:   []Outlier{},
	}
	for i, label := range categories {
		stats := ComputeBox(byCategory[label], limits.BoxplotOutlierLimit)
		out.Boxes[i] = Box{stats.Low, stats.Q1, stats.Median, stats.Q3, stats.High}
		for _, v := range stats.Outliers {
			out.Outliers = append(out.Outliers, Outlier{Category: label, Value: v})
		}
	}
	return out
}

// ComputeBox summarizes values with Tukey fences at 1.5 IQR. Whiskers are
// the extreme values inside the fences, or the raw extremes when no value
// lies inside. At most outlierLimit outliers are kept (all when <= 0).
func ComputeBox(values []float64, outlierLimit int) BoxStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var s BoxStats
	if len(sorted) == 0 {
		return s
	}

	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q3 = Quantile(sorted, 0.75)
	iqr := s.Q3 - s.Q1
	s.LowerFence = s.Q1 - 1.5*iqr
	s.UpperFence = s.Q3 + 1.5*iqr

	inside := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v < s.LowerFence || v > s.UpperFence {
			if outlierLimit <= 0 || len(s.Outliers) < outlierLimit {
				s.Outliers = append(s.Outliers, v)
			}
			continue
		}
		inside = append(inside, v)
	}

	var ok bool
	if s.Low, s.High, ok = common.MinMax(inside); !ok {
		s.Low, s.High, _ = common.MinMax(sorted)
	}
	return s
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
