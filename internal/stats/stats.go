// Package stats reduces per-trial latencies to summary figures.
package stats

import (
	"math"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latencies are recorded in microseconds, up to one hour.
const (
	minMicros   = 1
	maxMicros   = 3_600_000_000
	sigFigures  = 3
	microsPerMs = 1000.0
)

// Summary describes one set of samples, all in milliseconds. Mean, Min and
// Max are exact; P95 and P99 come from an HDR histogram.
type Summary struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"avg_ms"`
	Min     float64 `json:"min_ms"`
	Max     float64 `json:"max_ms"`
	P95     float64 `json:"p95_ms"`
	P99     float64 `json:"p99_ms"`
}

// Summarize computes a Summary over samples in milliseconds. An empty input
// yields the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	histogram := hdrhistogram.New(minMicros, maxMicros, sigFigures)
	s := Summary{
		Samples: len(samples),
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
	}
	var total float64
	for _, v := range samples {
		total += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		histogram.RecordValue(clamp(int64(math.Round(v * microsPerMs))))
	}
	s.Mean = total / float64(len(samples))
	s.P95 = float64(histogram.ValueAtQuantile(95)) / microsPerMs
	s.P99 = float64(histogram.ValueAtQuantile(99)) / microsPerMs
	return s
}

func clamp(us int64) int64 {
	if us < minMicros {
		return minMicros
	}
	if us > maxMicros {
		return maxMicros
	}
	return us
}

// Merge concatenates sample sets, e.g. every entity of a sweep.
func Merge(sets ...[]float64) []float64 {
	var n int
	for _, s := range sets {
		n += len(s)
	}
	out := make([]float64, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
