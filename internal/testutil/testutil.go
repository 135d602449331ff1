// Package testutil provides throwaway SQLite databases with the transport
// schema for package tests.
package testutil

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/generator"
	"transport-benchmark/internal/workloads/transport"
)

// SQLiteStore opens an on-disk SQLite database in a temp dir with foreign
// keys enforced and the schema created. It is closed when the test ends.
func SQLiteStore(t testing.TB) *database.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "transport.db") + "?_foreign_keys=on"
	store, err := database.Open(context.Background(), database.Options{
		Dialect: database.SQLite,
		DSN:     dsn,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, transport.Setup(context.Background(), store))
	return store
}

// Populate commits rows rows per entity through the direct backend.
func Populate(t testing.TB, store *database.Store, rows int) {
	t.Helper()

	b := backend.NewDirect(store, backend.LeftJoin)
	reg := generator.NewRegistry(b, rand.New(rand.NewSource(1)))
	require.NoError(t, transport.Populate(context.Background(), store, b, reg, rows))
}

// Counts returns committed row counts per entity.
func Counts(t testing.TB, store *database.Store) map[string]int64 {
	t.Helper()

	counts, err := transport.Counts(context.Background(), store, nil)
	require.NoError(t, err)
	return counts
}

// Backends returns both access paths over store.
func Backends(store *database.Store) []backend.Backend {
	return []backend.Backend{
		backend.NewMapped(store),
		backend.NewDirect(store, backend.LeftJoin),
	}
}
