// Package transport creates, fills and drops the transport-company tables the
// benchmarks run against.
package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/generator"
)

// Setup creates every catalog table, parents first.
func Setup(ctx context.Context, store *database.Store) error {
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	for _, e := range catalog.List() {
		ddl, err := GetEntitySchema(store.Dialect(), e)
		if err != nil {
			return err
		}
		if _, err := store.ExecContext(ctx, nil, ddl); err != nil {
			return fmt.Errorf("create %s: %w", e.Name, err)
		}
	}
	store.Logger().Info("schema created", zap.String("dialect", store.Dialect().Name()))
	return nil
}

// Teardown drops every catalog table, children first.
func Teardown(ctx context.Context, store *database.Store) error {
	entities := catalog.List()
	for i := len(entities) - 1; i >= 0; i-- {
		if _, err := store.ExecContext(ctx, nil, GetDropStatement(store.Dialect(), entities[i])); err != nil {
			return fmt.Errorf("drop %s: %w", entities[i].Name, err)
		}
	}
	store.Logger().Info("schema dropped", zap.String("dialect", store.Dialect().Name()))
	return nil
}

// Populate commits rows new rows per entity, in catalog order, using the
// generator's create payloads. An entity a child references through a unique
// key gets twice as many rows, so rows of it stay free for that child's
// insert benchmark (a tripdetails run needs as many free orders as trials).
func Populate(ctx context.Context, store *database.Store, b backend.Backend, reg *generator.Registry, rows int) error {
	for _, e := range catalog.List() {
		s, err := reg.Lookup(e.Name)
		if err != nil {
			return err
		}
		n := RowsFor(e, rows)
		for i := 0; i < n; i++ {
			payload, err := s.CreatePayload(ctx, nil)
			if err != nil {
				return fmt.Errorf("populate %s: %w", e.Name, err)
			}
			if _, err := b.Create(ctx, nil, e, payload); err != nil {
				return fmt.Errorf("populate %s: %w", e.Name, err)
			}
		}
		store.Logger().Info("populated", zap.String("entity", e.Name), zap.Int("rows", n))
	}
	return nil
}

// RowsFor is how many rows Populate commits for e when asked for rows per
// entity.
func RowsFor(e *catalog.Entity, rows int) int {
	for _, child := range catalog.List() {
		fk, ok := child.ForeignKeyTo(e.Name)
		if !ok {
			continue
		}
		if f, _ := child.Field(fk.Field); f.Unique {
			return 2 * rows
		}
	}
	return rows
}

// Counts returns the current row count of every catalog table.
func Counts(ctx context.Context, store *database.Store, scope *database.Scope) (map[string]int64, error) {
	counts := make(map[string]int64, len(catalog.Names()))
	for _, name := range catalog.Names() {
		n, err := store.Count(ctx, scope, name)
		if err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, nil
}
