package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/report"
	"transport-benchmark/internal/runner"
)

// menu is the interactive prompt loop. Benchmark errors are printed and the
// loop continues; only a closed input or the exit choice ends it.
type menu struct {
	runner   *runner.Runner
	reporter *report.Reporter
	in       io.Reader
	out      io.Writer
	backend  string
	limit    int
	trials   int

	scanner *bufio.Scanner
}

const menuText = `
1) select sweep over every table
2) select one table
3) insert/update/delete one table
4) compare mapped and direct
5) switch backend
6) row counts
0) exit
`

func (m *menu) run(ctx context.Context) error {
	m.scanner = bufio.NewScanner(m.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(m.out, menuText)
		choice, ok := m.ask(fmt.Sprintf("choice [backend: %s]", m.backend), "")
		if !ok || choice == "0" {
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = m.sweep(ctx)
		case "2":
			err = m.selectOne(ctx)
		case "3":
			err = m.iud(ctx)
		case "4":
			err = m.compare(ctx)
		case "5":
			m.switchBackend()
		case "6":
			err = m.counts(ctx)
		default:
			fmt.Fprintf(m.out, "unknown choice %q\n", choice)
		}
		if err != nil {
			fmt.Fprintf(m.out, "error: %v\n", err)
		}
	}
}

// ask prints a prompt and reads one trimmed line. An empty answer yields
// def; ok is false once input is closed.
func (m *menu) ask(prompt, def string) (string, bool) {
	if def != "" {
		fmt.Fprintf(m.out, "%s (%s): ", prompt, def)
	} else {
		fmt.Fprintf(m.out, "%s: ", prompt)
	}
	if !m.scanner.Scan() {
		return "", false
	}
	answer := strings.TrimSpace(m.scanner.Text())
	if answer == "" {
		answer = def
	}
	return answer, true
}

func (m *menu) askInt(prompt string, def int) (int, error) {
	answer, ok := m.ask(prompt, strconv.Itoa(def))
	if !ok {
		return 0, io.EOF
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", prompt, answer)
	}
	return n, nil
}

func (m *menu) askTable() (string, error) {
	answer, ok := m.ask("table ("+strings.Join(catalog.Names(), ", ")+")", "")
	if !ok {
		return "", io.EOF
	}
	return answer, nil
}

func (m *menu) sweep(ctx context.Context) error {
	limit, err := m.askInt("limit", m.limit)
	if err != nil {
		return err
	}
	trials, err := m.askInt("repeats", m.trials)
	if err != nil {
		return err
	}
	sw, err := m.runner.SelectSweep(ctx, m.backend, limit, trials)
	if err != nil {
		return err
	}
	return m.reporter.ReportSweep(sw)
}

func (m *menu) selectOne(ctx context.Context) error {
	table, err := m.askTable()
	if err != nil {
		return err
	}
	limit, err := m.askInt("limit", m.limit)
	if err != nil {
		return err
	}
	trials, err := m.askInt("repeats", m.trials)
	if err != nil {
		return err
	}
	var includes []string
	if e, err := catalog.Lookup(table); err == nil {
		if answer, _ := m.ask("join related tables (y/n)", "n"); answer == "y" {
			includes = e.Includes
		}
	}
	run, err := m.runner.MeasureSelect(ctx, m.backend, table, limit, includes, trials)
	if err != nil {
		return err
	}
	return m.reporter.ReportRun(run)
}

func (m *menu) iud(ctx context.Context) error {
	table, err := m.askTable()
	if err != nil {
		return err
	}
	trials, err := m.askInt("rows", m.trials)
	if err != nil {
		return err
	}
	rep, err := m.runner.IUD(ctx, m.backend, table, trials, false)
	if err != nil {
		return err
	}
	return m.reporter.ReportIUD(rep)
}

func (m *menu) compare(ctx context.Context) error {
	limit, err := m.askInt("limit", m.limit)
	if err != nil {
		return err
	}
	trials, err := m.askInt("repeats", m.trials)
	if err != nil {
		return err
	}
	cmp, err := m.runner.Compare(ctx, limit, trials)
	if err != nil {
		return err
	}
	return m.reporter.ReportComparison(cmp)
}

func (m *menu) switchBackend() {
	if m.backend == runner.Mapped {
		m.backend = runner.Direct
	} else {
		m.backend = runner.Mapped
	}
	fmt.Fprintf(m.out, "backend: %s\n", m.backend)
}

func (m *menu) counts(ctx context.Context) error {
	counts, err := m.runner.Counts(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(m.out, "  %-14s %d\n", name, counts[name])
	}
	return nil
}
