// Package report renders engine results as fixed-width tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"transport-benchmark/internal/engine"
	"transport-benchmark/internal/stats"
)

const width = 78

// Reporter writes results to one writer.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	return &Reporter{writer: writer}
}

// ReportRun prints a single select measurement, e.g. one table averaged over
// its repeats.
func (r *Reporter) ReportRun(run *engine.Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	r.printHeader(fmt.Sprintf("%s %s (%s)", strings.ToUpper(run.Operation), run.Entity, run.Backend))
	fmt.Fprintf(r.writer, "  Limit: %d | Includes: %s\n", run.Limit, includes(run.Includes))
	r.printColumns("Entity")
	r.printRow(run.Entity, run.Stats)
	r.printFooter()
	return nil
}

// ReportSweep prints one row per entity plus the combined summary.
func (r *Reporter) ReportSweep(sweep *engine.SweepReport) error {
	if sweep == nil {
		return fmt.Errorf("sweep cannot be nil")
	}

	r.printHeader(fmt.Sprintf("SELECT sweep (%s)", sweep.Backend))
	fmt.Fprintf(r.writer, "  Limit: %d | Trials: %d\n", sweep.Limit, sweep.Trials)
	r.printColumns("Entity")
	for _, run := range sweep.Runs {
		r.printRow(run.Entity, run.Stats)
	}
	r.printRule()
	r.printRow("all", sweep.Combined)
	r.printFooter()
	return nil
}

// ReportIUD prints the three phases and the outcome.
func (r *Reporter) ReportIUD(iud *engine.IUDReport) error {
	if iud == nil {
		return fmt.Errorf("report cannot be nil")
	}

	r.printHeader(fmt.Sprintf("INSERT/UPDATE/DELETE %s (%s)", iud.Entity, iud.Backend))
	fmt.Fprintf(r.writer, "  Trials: %d | Inserted: %d | Deleted: %d | Skipped: %d\n",
		iud.Trials, len(iud.InsertedKeys), len(iud.DeletedKeys), iud.Skipped)
	r.printColumns("Phase")
	for _, run := range iud.Phases() {
		r.printRow(run.Operation, run.Stats)
	}
	r.printRule()
	fmt.Fprintf(r.writer, "  Outcome: %s\n", iud.Outcome)
	r.printFooter()
	return nil
}

// ReportComparison prints the average latency of every backend side by side.
func (r *Reporter) ReportComparison(cmp *engine.Comparison) error {
	if cmp == nil || len(cmp.Sweeps) == 0 {
		return fmt.Errorf("comparison has no sweeps")
	}

	r.printHeader("Mapped vs direct")
	fmt.Fprintf(r.writer, "  Limit: %d | Trials: %d\n", cmp.Limit, cmp.Trials)

	fmt.Fprintf(r.writer, "  %-14s", "Entity")
	for _, sw := range cmp.Sweeps {
		fmt.Fprintf(r.writer, " %14s", sw.Backend+" avg")
	}
	fmt.Fprintf(r.writer, " %10s\n", "ratio")

	base := cmp.Sweeps[0]
	for i, run := range base.Runs {
		fmt.Fprintf(r.writer, "  %-14s", run.Entity)
		for _, sw := range cmp.Sweeps {
			if i < len(sw.Runs) {
				fmt.Fprintf(r.writer, " %11.3fms", sw.Runs[i].Stats.Mean)
			} else {
				fmt.Fprintf(r.writer, " %14s", "-")
			}
		}
		fmt.Fprintf(r.writer, " %10s\n", ratio(cmp.Sweeps, i))
	}
	r.printFooter()
	return nil
}

// ratio is the first backend's average over the last one's for row i.
func ratio(sweeps []*engine.SweepReport, i int) string {
	if len(sweeps) < 2 {
		return "-"
	}
	first, last := sweeps[0], sweeps[len(sweeps)-1]
	if i >= len(last.Runs) || last.Runs[i].Stats.Mean == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", first.Runs[i].Stats.Mean/last.Runs[i].Stats.Mean)
}

// ReportJSON writes v as indented JSON.
func (r *Reporter) ReportJSON(v interface{}) error {
	if v == nil {
		return fmt.Errorf("result cannot be nil")
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *Reporter) printColumns(first string) {
	fmt.Fprintf(r.writer, "  %-14s %8s %12s %12s %12s %12s\n", first, "samples", "avg", "min", "max", "p95")
}

func (r *Reporter) printRow(name string, s stats.Summary) {
	fmt.Fprintf(r.writer, "  %-14s %8d %10.3fms %10.3fms %10.3fms %10.3fms\n",
		name, s.Samples, s.Mean, s.Min, s.Max, s.P95)
}

func (r *Reporter) printHeader(title string) {
	line := strings.Repeat("=", width)
	fmt.Fprintln(r.writer, line)
	fmt.Fprintln(r.writer, centerString(title, width))
	fmt.Fprintln(r.writer, line)
}

func (r *Reporter) printRule() {
	fmt.Fprintln(r.writer, "  "+strings.Repeat("-", width-2))
}

func (r *Reporter) printFooter() {
	fmt.Fprintln(r.writer, strings.Repeat("=", width))
}

func includes(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func centerString(s string, width int) string {
	if len(s) >= width {
		return s
	}
	padding := (width - len(s)) / 2
	return strings.Repeat(" ", padding) + s
}
