// Package generator produces valid create and update payloads for each
// catalog entity, resolving foreign keys against rows already present.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/seed"
)

var (
	// ErrNoAvailableParent is returned when a required parent table has no
	// usable rows.
	ErrNoAvailableParent = errors.New("no available parent")

	// ErrSeedExhausted is returned by replay-mode strategies once the seed
	// source has no records left.
	ErrSeedExhausted = errors.New("seed source exhausted")
)

// ParentPool is how many leading parent rows foreign keys are sampled from.
const ParentPool = 10

// Strategy builds payloads for one entity. Reads go through scope so that
// rows created earlier in the same run are visible.
type Strategy interface {
	Entity() string
	CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error)
	UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error)
}

// Registry maps entity names to their strategies.
type Registry struct {
	strategies map[string]Strategy
}

type options struct {
	source seed.Source
}

type Option func(*options)

// WithSeed switches order creation to replay mode, drawing rows from src.
func WithSeed(src seed.Source) Option {
	return func(o *options) { o.source = src }
}

// NewRegistry builds one strategy per catalog entity. Parent lookups use b
// and all randomness comes from rng.
func NewRegistry(b backend.Backend, rng *rand.Rand, opts ...Option) *Registry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g := &gen{backend: b, rng: rng}
	var order Strategy = &orderStrategy{gen: g}
	if o.source != nil {
		order = &replayOrderStrategy{gen: g, source: o.source}
	}

	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range []Strategy{
		&clientStrategy{gen: g},
		&driverStrategy{gen: g},
		&vehicleStrategy{gen: g},
		order,
		&tripDetailsStrategy{gen: g},
		&tripLogStrategy{gen: g},
	} {
		r.strategies[s.Entity()] = s
	}
	return r
}

// Lookup returns the strategy for entity.
func (r *Registry) Lookup(entity string) (Strategy, error) {
	s, ok := r.strategies[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownEntity, entity)
	}
	return s, nil
}

// gen holds what every strategy shares.
type gen struct {
	backend backend.Backend
	rng     *rand.Rand
}

// suffix is unique per call within and across processes.
func (g *gen) suffix() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

func (g *gen) pick(vals []string) string {
	return vals[g.rng.Intn(len(vals))]
}

func (g *gen) phone() string {
	return fmt.Sprintf("+7%010d", g.rng.Int63n(10_000_000_000))
}

func (g *gen) money(upTo float64) float64 {
	return float64(int64(g.rng.Float64()*upTo*100)) / 100
}

// parentKey samples a key uniformly from the first ParentPool rows of entity.
func (g *gen) parentKey(ctx context.Context, scope *database.Scope, entity string) (int64, error) {
	e, err := catalog.Lookup(entity)
	if err != nil {
		return 0, err
	}
	recs, err := g.backend.SelectFields(ctx, scope, e, []string{e.PrimaryKey}, ParentPool)
	if err != nil {
		return 0, fmt.Errorf("read %s keys: %w", entity, err)
	}
	if len(recs) == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrNoAvailableParent, entity)
	}
	key, ok := recs[g.rng.Intn(len(recs))].Int64(e.PrimaryKey)
	if !ok {
		return 0, fmt.Errorf("read %s keys: non-integer %s", entity, e.PrimaryKey)
	}
	return key, nil
}
