package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})

	assert.Equal(t, 4, s.Samples)
	assert.InDelta(t, 2.5, s.Mean, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 4.0, s.P95, 0.01)
	assert.InDelta(t, 4.0, s.P99, 0.01)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarizeSubMicrosecond(t *testing.T) {
	s := Summarize([]float64{0, 0.0001})

	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 0.0001, s.Max)
	assert.GreaterOrEqual(t, s.P95, 0.0)
}

func TestSummarizePercentiles(t *testing.T) {
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = float64(i + 1)
	}
	s := Summarize(samples)

	assert.InDelta(t, 50.5, s.Mean, 1e-9)
	assert.InDelta(t, 95, s.P95, 0.1)
	assert.InDelta(t, 99, s.P99, 0.1)
	assert.LessOrEqual(t, s.P95, s.P99)
}

func TestMerge(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, Merge([]float64{1}, nil, []float64{2, 3}))
	assert.Empty(t, Merge())
}
