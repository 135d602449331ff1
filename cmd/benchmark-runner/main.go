package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/config"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/engine"
	"transport-benchmark/internal/logging"
	"transport-benchmark/internal/report"
	"transport-benchmark/internal/runner"
	"transport-benchmark/internal/seed"
)

// GlobalOpts apply to every command.
type GlobalOpts struct {
	Config  string `short:"c" long:"config" description:"path to the YAML config" default:"config.yaml"`
	DB      string `long:"db" description:"database type (postgres|mysql|sqlite)" default:"sqlite"`
	Backend string `short:"b" long:"backend" description:"access path (mapped|direct), defaults to benchmark_settings.default_backend"`
	Verbose []bool `short:"v" long:"verbose" description:"log per-trial timings"`
	JSON    bool   `long:"json" description:"print reports as JSON"`
}

// app is the state shared by all commands. It is opened lazily by the
// command that runs.
type app struct {
	opts     GlobalOpts
	cfg      *config.Config
	logger   *zap.Logger
	store    *database.Store
	runner   *runner.Runner
	reporter *report.Reporter
	in       io.Reader
	out      io.Writer
}

func (a *app) open(ctx context.Context, withSeed bool) error {
	cfg, err := config.LoadConfig(a.opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if len(a.opts.Verbose) > 0 {
		level = "debug"
	}
	a.logger, err = logging.New(level, cfg.Logging.Development)
	if err != nil {
		return err
	}

	dsn, err := cfg.DSN(a.opts.DB)
	if err != nil {
		return err
	}
	a.store, err = database.Open(ctx, database.Options{
		Dialect:      a.opts.DB,
		DSN:          dsn,
		MaxOpenConns: cfg.MaxOpenConns,
		Logger:       a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", a.opts.DB, err)
	}

	join, err := backend.ParseJoinType(cfg.BenchmarkSettings.JoinType)
	if err != nil {
		return err
	}
	opts := runner.Options{
		JoinType:   join,
		RandomSeed: cfg.BenchmarkSettings.RandomSeed,
		Logger:     a.logger,
	}
	if withSeed {
		if opts.Seed, err = a.loadSeed(ctx); err != nil {
			return err
		}
	}
	a.runner = runner.New(a.store, opts)
	a.reporter = report.NewReporter(a.out)
	return nil
}

func (a *app) loadSeed(ctx context.Context) (seed.Source, error) {
	switch {
	case a.cfg.Seed.JSONPath != "":
		return seed.LoadJSON(a.cfg.Seed.JSONPath)
	case a.cfg.Databases.Mongo != "":
		return seed.LoadMongo(ctx, seed.MongoOptions{
			URI:        a.cfg.Databases.Mongo,
			Database:   a.cfg.Seed.MongoDatabase,
			Collection: a.cfg.Seed.MongoCollection,
		})
	}
	return nil, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) backend() string {
	if a.opts.Backend != "" {
		return a.opts.Backend
	}
	return a.cfg.BenchmarkSettings.DefaultBackend
}

func (a *app) limit(v int) int {
	if v > 0 {
		return v
	}
	return a.cfg.BenchmarkSettings.DefaultLimit
}

func (a *app) trials(v int) int {
	if v > 0 {
		return v
	}
	return a.cfg.BenchmarkSettings.DefaultTrials
}

// print renders a report as a table, or as JSON with --json.
func (a *app) print(v interface{}, table func() error) error {
	if a.opts.JSON {
		return a.reporter.ReportJSON(v)
	}
	return table()
}

type setupCommand struct {
	app  *app
	Rows int `long:"rows" description:"rows to insert per table" default:"100"`
}

func (c *setupCommand) Execute([]string) error {
	ctx := context.Background()
	if err := c.app.open(ctx, false); err != nil {
		return err
	}
	if err := c.app.runner.Setup(ctx, c.Rows); err != nil {
		return fmt.Errorf("failed to setup database: %w", err)
	}
	fmt.Fprintf(c.app.out, "Schema ready on %s with %d rows per table\n", c.app.opts.DB, c.Rows)
	return nil
}

type teardownCommand struct {
	app *app
}

func (c *teardownCommand) Execute([]string) error {
	ctx := context.Background()
	if err := c.app.open(ctx, false); err != nil {
		return err
	}
	if err := c.app.runner.Teardown(ctx); err != nil {
		return fmt.Errorf("failed to teardown database: %w", err)
	}
	fmt.Fprintf(c.app.out, "Schema dropped on %s\n", c.app.opts.DB)
	return nil
}

type selectCommand struct {
	app      *app
	Limit    int      `short:"l" long:"limit" description:"rows per select"`
	Trials   int      `short:"t" long:"trials" description:"repeats per entity"`
	Entity   string   `short:"e" long:"entity" description:"measure a single table instead of the full sweep"`
	Includes []string `short:"i" long:"include" description:"related table to join (with --entity, repeatable)"`
}

func (c *selectCommand) Execute([]string) error {
	ctx := context.Background()
	if err := c.app.open(ctx, false); err != nil {
		return err
	}
	a := c.app

	if c.Entity != "" {
		run, err := a.runner.MeasureSelect(ctx, a.backend(), c.Entity, a.limit(c.Limit), c.Includes, a.trials(c.Trials))
		if err != nil {
			return err
		}
		return a.print(run, func() error { return a.reporter.ReportRun(run) })
	}

	sweep, err := a.runner.SelectSweep(ctx, a.backend(), a.limit(c.Limit), a.trials(c.Trials))
	if err != nil {
		return err
	}
	return a.print(sweep, func() error { return a.reporter.ReportSweep(sweep) })
}

type iudCommand struct {
	app    *app
	Entity string `short:"e" long:"entity" description:"table to insert, update and delete" required:"true"`
	Trials int    `short:"t" long:"trials" description:"rows per phase"`
	Replay bool   `long:"replay" description:"insert recorded orders from the seed source"`
}

func (c *iudCommand) Execute([]string) error {
	ctx := context.Background()
	if err := c.app.open(ctx, c.Replay); err != nil {
		return err
	}
	a := c.app

	rep, err := a.runner.IUD(ctx, a.backend(), c.Entity, a.trials(c.Trials), c.Replay)
	if err != nil {
		return err
	}
	if err := a.print(rep, func() error { return a.reporter.ReportIUD(rep) }); err != nil {
		return err
	}
	if !rep.Outcome.Completed() {
		return &abortedError{outcome: rep.Outcome}
	}
	return nil
}

type compareCommand struct {
	app    *app
	Limit  int `short:"l" long:"limit" description:"rows per select"`
	Trials int `short:"t" long:"trials" description:"repeats per entity"`
}

func (c *compareCommand) Execute([]string) error {
	ctx := context.Background()
	if err := c.app.open(ctx, false); err != nil {
		return err
	}
	a := c.app

	cmp, err := a.runner.Compare(ctx, a.limit(c.Limit), a.trials(c.Trials))
	if err != nil {
		return err
	}
	return a.print(cmp, func() error { return a.reporter.ReportComparison(cmp) })
}

type menuCommand struct {
	app *app
}

func (c *menuCommand) Execute([]string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c.app.open(ctx, false); err != nil {
		return err
	}
	m := &menu{
		runner:   c.app.runner,
		reporter: c.app.reporter,
		in:       c.app.in,
		out:      c.app.out,
		backend:  c.app.backend(),
		limit:    c.app.cfg.BenchmarkSettings.DefaultLimit,
		trials:   c.app.cfg.BenchmarkSettings.DefaultTrials,
	}
	return m.run(ctx)
}

// abortedError reports a rolled-back IUD run as a failed command.
type abortedError struct {
	outcome engine.Outcome
}

func (e *abortedError) Error() string {
	return "iud " + e.outcome.String()
}

func newParser(a *app) (*flags.Parser, error) {
	parser := flags.NewNamedParser("benchmark-runner", flags.Default)
	parser.Usage = "[OPTIONS] <setup|teardown|select|iud|compare|menu>"
	if _, err := parser.AddGroup("Global options", "", &a.opts); err != nil {
		return nil, fmt.Errorf("add global options: %w", err)
	}

	commands := []struct {
		name, short string
		data        interface{}
	}{
		{"setup", "Create the schema and fill every table", &setupCommand{app: a}},
		{"teardown", "Drop the schema", &teardownCommand{app: a}},
		{"select", "Time selects on every table, or on one with --entity", &selectCommand{app: a}},
		{"iud", "Time insert, update and delete on one table, then roll back", &iudCommand{app: a}},
		{"compare", "Run the select sweep on both backends side by side", &compareCommand{app: a}},
		{"menu", "Interactive prompt", &menuCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, "", c.data); err != nil {
			return nil, fmt.Errorf("add command %s: %w", c.name, err)
		}
	}
	return parser, nil
}

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	a := &app{in: os.Stdin, out: os.Stdout}
	defer a.close()

	parser, err := newParser(a)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
		return
	}

	// The parser prints every error it returns, command errors included.
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		exitCode = 1
	}
}
