// Package forcing derives the tabular meteorological forcing of the
// water-balance model: precipitation and reference evapotranspiration,
// resampled to the model timestep and written as a model-ready CSV.
package forcing

import (
	"sort"
	"time"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

// Aggregation selects how samples falling into one resampling bucket are
// combined.
type Aggregation int

const (
	// Sum accumulates samples; used for precipitation depths.
	Sum Aggregation = iota
	// Mean averages samples; used for evapotranspiration rates.
	Mean
)

// Series is a timestamped scalar series. Times and Values run in parallel
// and are kept in chronological order.
type Series struct {
	Times  []time.Time
	Values []float64
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Times) }

// Resample buckets the series into intervals of the given step, anchored at
// the truncation of each timestamp, and aggregates every bucket with the
// given rule. Buckets without samples are not emitted.
func (s Series) Resample(step time.Duration, agg Aggregation) (Series, error) {
	if step <= 0 {
		return Series{}, errors.New(errors.ErrCodeInvalidForcing, "resampling step must be positive, got %v", step)
	}
	if len(s.Times) != len(s.Values) {
		return Series{}, errors.New(errors.ErrCodeInvalidForcing,
			"series has %d timestamps but %d values", len(s.Times), len(s.Values))
	}

	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for i, ts := range s.Times {
		bucket := ts.Truncate(step)
		sums[bucket] += s.Values[i]
		counts[bucket]++
	}

	buckets := make([]time.Time, 0, len(sums))
	for b := range sums {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	out := Series{Times: buckets, Values: make([]float64, len(buckets))}
	for i, b := range buckets {
		v := sums[b]
		if agg == Mean {
			v /= float64(counts[b])
		}
		out.Values[i] = v
	}
	return out, nil
}

// Scale returns a copy of the series with every value multiplied by f.
func (s Series) Scale(f float64) Series {
	out := Series{Times: s.Times, Values: make([]float64, len(s.Values))}
	for i, v := range s.Values {
		out.Values[i] = v * f
	}
	return out
}
