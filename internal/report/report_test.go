package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-benchmark/internal/engine"
	"transport-benchmark/internal/generator"
	"transport-benchmark/internal/stats"
)

func sweep(backend string, means ...float64) *engine.SweepReport {
	sw := &engine.SweepReport{Backend: backend, Limit: 10, Trials: 3}
	for i, m := range means {
		sw.Runs = append(sw.Runs, &engine.Run{
			Operation: engine.OpSelect,
			Entity:    []string{"client", "driver", "vehicle"}[i],
			Backend:   backend,
			Durations: []float64{m, m, m},
			Stats:     stats.Summarize([]float64{m, m, m}),
		})
	}
	sw.Combined = stats.Summarize([]float64{1, 2, 3})
	return sw
}

func TestReportSweep(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewReporter(buf)

	require.NoError(t, reporter.ReportSweep(sweep("mapped", 1.5, 2.25)))

	output := buf.String()
	assert.Contains(t, output, "SELECT sweep (mapped)")
	assert.Contains(t, output, "Limit: 10 | Trials: 3")
	assert.Contains(t, output, "client")
	assert.Contains(t, output, "1.500ms")
	assert.Contains(t, output, "2.250ms")
	assert.Contains(t, output, "all")

	assert.Error(t, reporter.ReportSweep(nil))
}

func TestReportRun(t *testing.T) {
	buf := &bytes.Buffer{}
	run := &engine.Run{
		Operation: engine.OpSelect,
		Entity:    "order",
		Backend:   "direct",
		Limit:     50,
		Includes:  []string{"client"},
		Stats:     stats.Summarize([]float64{4}),
	}

	require.NoError(t, NewReporter(buf).ReportRun(run))
	assert.Contains(t, buf.String(), "SELECT order (direct)")
	assert.Contains(t, buf.String(), "Includes: client")
	assert.Contains(t, buf.String(), "4.000ms")
}

func TestReportIUD(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		buf := &bytes.Buffer{}
		iud := &engine.IUDReport{
			Backend:      "direct",
			Entity:       "driver",
			Trials:       2,
			Insert:       &engine.Run{Operation: engine.OpInsert, Stats: stats.Summarize([]float64{1, 3})},
			Update:       &engine.Run{Operation: engine.OpUpdate, Stats: stats.Summarize([]float64{2, 2})},
			Delete:       &engine.Run{Operation: engine.OpDelete, Stats: stats.Summarize([]float64{0.5, 0.5})},
			InsertedKeys: []int64{1, 2},
			DeletedKeys:  []int64{1, 2},
		}

		require.NoError(t, NewReporter(buf).ReportIUD(iud))
		output := buf.String()
		assert.Contains(t, output, "INSERT/UPDATE/DELETE driver (direct)")
		assert.Contains(t, output, "Inserted: 2 | Deleted: 2")
		assert.Contains(t, output, "insert")
		assert.Contains(t, output, "0.500ms")
		assert.Contains(t, output, "Outcome: completed")
	})

	t.Run("aborted", func(t *testing.T) {
		buf := &bytes.Buffer{}
		iud := &engine.IUDReport{
			Entity:  "order",
			Insert:  &engine.Run{Operation: engine.OpInsert},
			Update:  &engine.Run{Operation: engine.OpUpdate},
			Delete:  &engine.Run{Operation: engine.OpDelete},
			Outcome: engine.Outcome{Status: engine.Aborted, Err: generator.ErrNoAvailableParent},
		}

		require.NoError(t, NewReporter(buf).ReportIUD(iud))
		assert.Contains(t, buf.String(), "aborted (no_available_parent)")
	})
}

func TestReportComparison(t *testing.T) {
	buf := &bytes.Buffer{}
	cmp := &engine.Comparison{
		Limit:  10,
		Trials: 3,
		Sweeps: []*engine.SweepReport{sweep("mapped", 4, 3), sweep("direct", 2, 3)},
	}

	require.NoError(t, NewReporter(buf).ReportComparison(cmp))
	output := buf.String()
	assert.Contains(t, output, "mapped avg")
	assert.Contains(t, output, "direct avg")
	assert.Contains(t, output, "2.00x")
	assert.Contains(t, output, "1.00x")

	assert.Error(t, NewReporter(buf).ReportComparison(&engine.Comparison{}))
}

func TestReportJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	iud := &engine.IUDReport{
		Entity:  "client",
		Outcome: engine.Outcome{Status: engine.Aborted, Err: errors.New("boom")},
	}

	require.NoError(t, NewReporter(buf).ReportJSON(iud))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "client", decoded["entity"])
	outcome := decoded["outcome"].(map[string]interface{})
	assert.Equal(t, "aborted", outcome["status"])
	assert.Equal(t, "backend_failure", outcome["kind"])
	assert.Equal(t, "boom", outcome["error"])

	assert.Error(t, NewReporter(buf).ReportJSON(nil))
}
