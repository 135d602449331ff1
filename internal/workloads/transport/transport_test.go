package transport_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/testutil"
	"transport-benchmark/internal/workloads/transport"
)

func TestSetupIsIdempotent(t *testing.T) {
	store := testutil.SQLiteStore(t)

	require.NoError(t, transport.Setup(context.Background(), store))
	for name, n := range testutil.Counts(t, store) {
		assert.Zero(t, n, name)
	}
}

func TestPopulateAndTeardown(t *testing.T) {
	store := testutil.SQLiteStore(t)
	ctx := context.Background()

	testutil.Populate(t, store, 5)
	counts := testutil.Counts(t, store)
	require.Len(t, counts, len(catalog.Names()))
	for _, e := range catalog.List() {
		assert.Equal(t, int64(transport.RowsFor(e, 5)), counts[e.Name], e.Name)
	}
	assert.Equal(t, int64(10), counts[catalog.Order])

	require.NoError(t, transport.Teardown(ctx, store))
	_, err := transport.Counts(ctx, store, nil)
	assert.Error(t, err)

	// tables can be recreated after a teardown
	require.NoError(t, transport.Setup(ctx, store))
	assert.Equal(t, int64(0), testutil.Counts(t, store)[catalog.Order])
}

func TestPopulateLeavesFreeOrders(t *testing.T) {
	store := testutil.SQLiteStore(t)
	testutil.Populate(t, store, 12)

	b := backend.NewDirect(store, backend.LeftJoin)
	free, err := b.SelectUnreferenced(context.Background(), nil,
		catalog.MustLookup(catalog.Order), catalog.MustLookup(catalog.TripDetails), "order_id", 100)
	require.NoError(t, err)
	assert.Len(t, free, 12)
	assert.Equal(t, int64(12), testutil.Counts(t, store)[catalog.TripDetails])
}

func TestRowsFor(t *testing.T) {
	for _, name := range catalog.Names() {
		want := 3
		if name == catalog.Order {
			want = 6
		}
		assert.Equal(t, want, transport.RowsFor(catalog.MustLookup(name), 3), name)
	}
}
