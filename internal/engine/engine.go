// Package engine times select sweeps and transactional insert/update/delete
// runs against one backend. Trials and phases run strictly one after another.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/generator"
	"transport-benchmark/internal/stats"
)

// ErrInvalidTrials is returned for a non-positive trial count.
var ErrInvalidTrials = errors.New("trials must be positive")

// ErrUnknownEntity is catalog.ErrUnknownEntity, re-exported for callers that
// only import engine.
var ErrUnknownEntity = catalog.ErrUnknownEntity

// Operation names.
const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ScopeRunner runs fn inside a transaction that is rolled back on every exit
// path. *database.Store is the production implementation.
type ScopeRunner interface {
	WithScope(ctx context.Context, fn func(*database.Scope) error) error
}

// Run is one timed operation repeated over trials.
type Run struct {
	Operation string        `json:"operation"`
	Entity    string        `json:"entity"`
	Backend   string        `json:"backend"`
	Limit     int           `json:"limit,omitempty"`
	Includes  []string      `json:"includes,omitempty"`
	Durations []float64     `json:"durations_ms"`
	Stats     stats.Summary `json:"stats"`
}

func (r *Run) record(d time.Duration) {
	r.Durations = append(r.Durations, float64(d)/float64(time.Millisecond))
}

func (r *Run) finish() *Run {
	r.Stats = stats.Summarize(r.Durations)
	return r
}

// SweepReport holds one select Run per catalog entity.
type SweepReport struct {
	Backend  string        `json:"backend"`
	Limit    int           `json:"limit"`
	Trials   int           `json:"trials"`
	Runs     []*Run        `json:"runs"`
	Combined stats.Summary `json:"combined"`
}

// IUDReport holds the three phases of one IUD run.
type IUDReport struct {
	Backend      string  `json:"backend"`
	Entity       string  `json:"entity"`
	Trials       int     `json:"trials"`
	Insert       *Run    `json:"insert"`
	Update       *Run    `json:"update"`
	Delete       *Run    `json:"delete"`
	InsertedKeys []int64 `json:"inserted_keys"`
	DeletedKeys  []int64 `json:"deleted_keys"`
	// Skipped counts inserts that produced no key.
	Skipped int     `json:"skipped"`
	Outcome Outcome `json:"outcome"`
}

// Phases returns the insert, update and delete runs in order.
func (r *IUDReport) Phases() []*Run {
	return []*Run{r.Insert, r.Update, r.Delete}
}

// Config wires an Engine.
type Config struct {
	Backend  backend.Backend
	Scopes   ScopeRunner
	Registry *generator.Registry
	// Rand drives key sampling in the update phase.
	Rand   *rand.Rand
	Logger *zap.Logger
}

type Engine struct {
	backend  backend.Backend
	scopes   ScopeRunner
	registry *generator.Registry
	rng      *rand.Rand
	logger   *zap.Logger
}

func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	registry := cfg.Registry
	if registry == nil {
		registry = generator.NewRegistry(cfg.Backend, rng)
	}
	return &Engine{
		backend:  cfg.Backend,
		scopes:   cfg.Scopes,
		registry: registry,
		rng:      rng,
		logger:   logger.With(zap.String("backend", cfg.Backend.Name())),
	}
}

// MeasureSelect times trials sequential selects of entity.
func (e *Engine) MeasureSelect(ctx context.Context, entity string, limit int, includes []string, trials int) (*Run, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrials, trials)
	}
	ent, err := catalog.Lookup(entity)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = backend.DefaultLimit
	}

	run := &Run{
		Operation: OpSelect,
		Entity:    ent.Name,
		Backend:   e.backend.Name(),
		Limit:     limit,
		Includes:  includes,
		Durations: make([]float64, 0, trials),
	}
	for i := 0; i < trials; i++ {
		start := time.Now()
		if _, err := e.backend.Select(ctx, ent, limit, includes...); err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		run.record(elapsed)
		e.logger.Debug("select",
			zap.String("table", ent.Name),
			zap.Int("limit", limit),
			zap.Duration("time", elapsed))
	}
	run.finish()

	e.logger.Info("select measured",
		zap.String("table", ent.Name),
		zap.Int("trials", trials),
		zap.Float64("avg_ms", run.Stats.Mean))
	return run, nil
}

// RunSelectSweep measures every catalog entity with its natural includes.
func (e *Engine) RunSelectSweep(ctx context.Context, limit, trials int) (*SweepReport, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrials, trials)
	}
	if limit <= 0 {
		limit = backend.DefaultLimit
	}

	report := &SweepReport{Backend: e.backend.Name(), Limit: limit, Trials: trials}
	var all [][]float64
	for _, ent := range catalog.List() {
		run, err := e.MeasureSelect(ctx, ent.Name, limit, ent.Includes, trials)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", ent.Name, err)
		}
		report.Runs = append(report.Runs, run)
		all = append(all, run.Durations)
	}
	report.Combined = stats.Summarize(stats.Merge(all...))
	return report, nil
}

// IUDOptions adjusts one IUD run.
type IUDOptions struct {
	// Registry overrides the engine's generator, e.g. for replay mode.
	Registry *generator.Registry
}

// RunIUD inserts trials rows of entity, updates trials randomly chosen
// inserted rows, deletes every inserted row, then rolls everything back.
// Validation failures return an error before any transaction is opened;
// failures during the run are reported through the report's Outcome.
func (e *Engine) RunIUD(ctx context.Context, entity string, trials int, opts IUDOptions) (*IUDReport, error) {
	ent, err := catalog.Lookup(entity)
	if err != nil {
		return nil, err
	}
	if trials <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrials, trials)
	}
	registry := opts.Registry
	if registry == nil {
		registry = e.registry
	}
	strategy, err := registry.Lookup(ent.Name)
	if err != nil {
		return nil, err
	}

	report := &IUDReport{
		Backend: e.backend.Name(),
		Entity:  ent.Name,
		Trials:  trials,
		Insert:  &Run{Operation: OpInsert, Entity: ent.Name, Backend: e.backend.Name()},
		Update:  &Run{Operation: OpUpdate, Entity: ent.Name, Backend: e.backend.Name()},
		Delete:  &Run{Operation: OpDelete, Entity: ent.Name, Backend: e.backend.Name()},
	}
	logger := e.logger.With(zap.String("entity", ent.Name))

	err = e.scopes.WithScope(ctx, func(scope *database.Scope) error {
		phaseErr := e.runPhases(ctx, scope, ent, strategy, trials, report)
		report.InsertedKeys = scope.Keys()
		return phaseErr
	})
	report.Outcome = newOutcome(err)
	e.finish(logger, report)
	return report, nil
}

func (e *Engine) finish(logger *zap.Logger, report *IUDReport) {
	for _, run := range report.Phases() {
		run.finish()
	}
	if !report.Outcome.Completed() {
		logger.Warn("iud aborted",
			zap.String("kind", report.Outcome.Kind()),
			zap.Error(report.Outcome.Err))
		return
	}
	logger.Info("iud completed",
		zap.Int("inserted", len(report.InsertedKeys)),
		zap.Int("skipped", report.Skipped),
		zap.Float64("insert_avg_ms", report.Insert.Stats.Mean),
		zap.Float64("update_avg_ms", report.Update.Stats.Mean),
		zap.Float64("delete_avg_ms", report.Delete.Stats.Mean))
}

func (e *Engine) runPhases(ctx context.Context, scope *database.Scope, ent *catalog.Entity, strategy generator.Strategy, trials int, report *IUDReport) error {
	// insert
	for i := 0; i < trials; i++ {
		payload, err := strategy.CreatePayload(ctx, scope)
		if errors.Is(err, generator.ErrSeedExhausted) {
			report.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("insert %s: %w", ent.Name, err)
		}

		start := time.Now()
		key, err := e.backend.Create(ctx, scope, ent, payload)
		elapsed := time.Since(start)
		if err != nil {
			return err
		}
		report.Insert.record(elapsed)
		e.logger.Debug("insert", zap.String("table", ent.Name), zap.Int64("key", key), zap.Duration("time", elapsed))

		if key <= 0 {
			report.Skipped++
			continue
		}
		scope.Track(key)
	}

	keys := scope.Keys()

	// update
	if len(keys) > 0 {
		for i := 0; i < trials; i++ {
			key := keys[e.rng.Intn(len(keys))]
			payload, err := strategy.UpdatePayload(ctx, scope, key)
			if err != nil {
				return fmt.Errorf("update %s %d: %w", ent.Name, key, err)
			}

			start := time.Now()
			err = e.backend.Update(ctx, scope, ent, key, payload)
			elapsed := time.Since(start)
			if err != nil {
				return err
			}
			report.Update.record(elapsed)
			e.logger.Debug("update", zap.String("table", ent.Name), zap.Int64("key", key), zap.Duration("time", elapsed))
		}
	}

	// delete
	for _, key := range keys {
		start := time.Now()
		err := e.backend.Destroy(ctx, scope, ent, key)
		elapsed := time.Since(start)
		if err != nil {
			return err
		}
		report.Delete.record(elapsed)
		report.DeletedKeys = append(report.DeletedKeys, key)
		e.logger.Debug("delete", zap.String("table", ent.Name), zap.Int64("key", key), zap.Duration("time", elapsed))
	}
	return nil
}

// Comparison pairs sweeps of the same limit and trials over different
// backends, in the order they ran.
type Comparison struct {
	Limit  int            `json:"limit"`
	Trials int            `json:"trials"`
	Sweeps []*SweepReport `json:"sweeps"`
}
