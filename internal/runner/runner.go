package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/engine"
	"transport-benchmark/internal/generator"
	"transport-benchmark/internal/seed"
	"transport-benchmark/internal/workloads/transport"
)

// Backend names accepted by the runner.
const (
	Mapped = "mapped"
	Direct = "direct"
)

// ErrNoSeedSource is returned for a replay run when no seed source is set.
var ErrNoSeedSource = errors.New("replay requested but no seed source configured")

type Options struct {
	JoinType backend.JoinType
	// RandomSeed seeds generated data; 0 seeds from the clock.
	RandomSeed int64
	// Seed feeds replay-mode order creation.
	Seed   seed.Source
	Logger *zap.Logger
}

// Runner owns one engine per backend over a shared store. Calls are
// serialized; no two benchmarks ever overlap.
type Runner struct {
	mu       sync.Mutex
	store    *database.Store
	rng      *rand.Rand
	seed     seed.Source
	logger   *zap.Logger
	backends map[string]backend.Backend
	engines  map[string]*engine.Engine
}

func New(store *database.Store, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	seedValue := opts.RandomSeed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedValue))

	r := &Runner{
		store:  store,
		rng:    rng,
		seed:   opts.Seed,
		logger: logger,
		backends: map[string]backend.Backend{
			Mapped: backend.NewMapped(store),
			Direct: backend.NewDirect(store, opts.JoinType),
		},
		engines: make(map[string]*engine.Engine),
	}
	for name, b := range r.backends {
		r.engines[name] = engine.New(engine.Config{
			Backend:  b,
			Scopes:   store,
			Registry: generator.NewRegistry(b, rng),
			Rand:     rng,
			Logger:   logger,
		})
	}
	return r
}

func (r *Runner) engine(name string) (*engine.Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", name, Mapped, Direct)
	}
	return e, nil
}

// Setup creates the schema and commits rows rows per entity.
func (r *Runner) Setup(ctx context.Context, rows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := transport.Setup(ctx, r.store); err != nil {
		return err
	}
	if rows <= 0 {
		return nil
	}
	b := r.backends[Direct]
	return transport.Populate(ctx, r.store, b, generator.NewRegistry(b, r.rng), rows)
}

func (r *Runner) Teardown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return transport.Teardown(ctx, r.store)
}

func (r *Runner) Counts(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return transport.Counts(ctx, r.store, nil)
}

// MeasureSelect times one entity on one backend.
func (r *Runner) MeasureSelect(ctx context.Context, backendName, entity string, limit int, includes []string, trials int) (*engine.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.engine(backendName)
	if err != nil {
		return nil, err
	}
	return e.MeasureSelect(ctx, entity, limit, includes, trials)
}

// SelectSweep times every entity on one backend.
func (r *Runner) SelectSweep(ctx context.Context, backendName string, limit, trials int) (*engine.SweepReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.engine(backendName)
	if err != nil {
		return nil, err
	}
	return e.RunSelectSweep(ctx, limit, trials)
}

// IUD runs one insert/update/delete cycle. With replay, orders come from the
// seed source instead of being generated; every replay run starts from the
// first recorded order, since the previous run was rolled back.
func (r *Runner) IUD(ctx context.Context, backendName, entity string, trials int, replay bool) (*engine.IUDReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.engine(backendName)
	if err != nil {
		return nil, err
	}
	var opts engine.IUDOptions
	if replay {
		if r.seed == nil {
			return nil, ErrNoSeedSource
		}
		r.seed.Reset()
		opts.Registry = generator.NewRegistry(r.backends[backendName], r.rng, generator.WithSeed(r.seed))
	}
	return e.RunIUD(ctx, entity, trials, opts)
}

// Compare sweeps the mapped backend, then the direct one, with the same
// limit and trials.
func (r *Runner) Compare(ctx context.Context, limit, trials int) (*engine.Comparison, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmp := &engine.Comparison{Limit: limit, Trials: trials}
	for _, name := range []string{Mapped, Direct} {
		sw, err := r.engines[name].RunSelectSweep(ctx, limit, trials)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		cmp.Limit = sw.Limit
		cmp.Sweeps = append(cmp.Sweeps, sw)
	}
	return cmp, nil
}
