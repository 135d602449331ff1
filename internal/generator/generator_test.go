package generator_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/generator"
	"transport-benchmark/internal/seed"
	"transport-benchmark/internal/testutil"
)

func newRegistry(b backend.Backend, opts ...generator.Option) *generator.Registry {
	return generator.NewRegistry(b, rand.New(rand.NewSource(42)), opts...)
}

func TestRegistryCoversCatalog(t *testing.T) {
	store := testutil.SQLiteStore(t)
	reg := newRegistry(backend.NewDirect(store, backend.LeftJoin))

	for _, name := range catalog.Names() {
		s, err := reg.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Entity())
	}

	_, err := reg.Lookup("invoice")
	assert.ErrorIs(t, err, catalog.ErrUnknownEntity)
}

func TestPayloadsMatchCatalog(t *testing.T) {
	store := testutil.SQLiteStore(t)
	testutil.Populate(t, store, 2)
	reg := newRegistry(backend.NewDirect(store, backend.LeftJoin))
	ctx := context.Background()

	for _, e := range catalog.List() {
		s, err := reg.Lookup(e.Name)
		require.NoError(t, err)

		payload, err := s.CreatePayload(ctx, nil)
		require.NoError(t, err, e.Name)
		_, hasPK := payload[e.PrimaryKey]
		assert.False(t, hasPK, e.Name)
		for col := range payload {
			_, ok := e.Field(col)
			assert.True(t, ok, "%s has no column %s", e.Name, col)
		}
		for _, f := range e.Fields {
			if !f.Nullable {
				assert.Contains(t, payload, f.Name, "%s.%s", e.Name, f.Name)
			}
			if len(f.Enum) > 0 {
				assert.Contains(t, f.Enum, payload[f.Name], "%s.%s", e.Name, f.Name)
			}
		}
	}
}

func TestUniqueFieldsDiffer(t *testing.T) {
	store := testutil.SQLiteStore(t)
	reg := newRegistry(backend.NewDirect(store, backend.LeftJoin))
	ctx := context.Background()

	for _, name := range []string{catalog.Client, catalog.Driver, catalog.Vehicle} {
		s, err := reg.Lookup(name)
		require.NoError(t, err)
		e := catalog.MustLookup(name)

		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			payload, err := s.CreatePayload(ctx, nil)
			require.NoError(t, err)
			for _, f := range e.Fields {
				if !f.Unique {
					continue
				}
				v := payload[f.Name].(string)
				assert.False(t, seen[v], "duplicate %s.%s %q", name, f.Name, v)
				seen[v] = true
			}
		}
	}
}

func TestNoAvailableParent(t *testing.T) {
	store := testutil.SQLiteStore(t)
	reg := newRegistry(backend.NewMapped(store))
	ctx := context.Background()

	for _, name := range []string{catalog.Order, catalog.TripDetails, catalog.TripLog} {
		s, err := reg.Lookup(name)
		require.NoError(t, err)
		_, err = s.CreatePayload(ctx, nil)
		assert.ErrorIs(t, err, generator.ErrNoAvailableParent, name)
	}
}

func TestOrderSamplesLeadingParents(t *testing.T) {
	store := testutil.SQLiteStore(t)
	testutil.Populate(t, store, 15)
	reg := newRegistry(backend.NewMapped(store))

	s, err := reg.Lookup(catalog.Order)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		payload, err := s.CreatePayload(context.Background(), nil)
		require.NoError(t, err)
		for _, fk := range []string{"client_id", "driver_id", "vehicle_id"} {
			id := payload[fk].(int64)
			assert.GreaterOrEqual(t, id, int64(1))
			assert.LessOrEqual(t, id, int64(generator.ParentPool))
		}
		dep := payload["planned_departure_time"].(time.Time)
		arr := payload["planned_arrival_time"].(time.Time)
		assert.True(t, arr.After(dep))
	}
}

func TestTripDetailsUsesUnreferencedOrders(t *testing.T) {
	store := testutil.SQLiteStore(t)
	testutil.Populate(t, store, 2)
	b := backend.NewDirect(store, backend.LeftJoin)
	reg := newRegistry(b)
	ctx := context.Background()
	orders := catalog.MustLookup(catalog.Order)
	details := catalog.MustLookup(catalog.TripDetails)

	free, err := b.SelectUnreferenced(ctx, nil, orders, details, "order_id", generator.ParentPool)
	require.NoError(t, err)
	require.Len(t, free, 2)

	s, err := reg.Lookup(catalog.TripDetails)
	require.NoError(t, err)
	for range free {
		payload, err := s.CreatePayload(ctx, nil)
		require.NoError(t, err)
		assert.Contains(t, free, payload["order_id"])
		_, err = b.Create(ctx, nil, details, payload)
		require.NoError(t, err)
	}

	_, err = s.CreatePayload(ctx, nil)
	require.ErrorIs(t, err, generator.ErrNoAvailableParent)

	// a new order is free again
	o, err := reg.Lookup(catalog.Order)
	require.NoError(t, err)
	p, err := o.CreatePayload(ctx, nil)
	require.NoError(t, err)
	newOrder, err := b.Create(ctx, nil, orders, p)
	require.NoError(t, err)

	payload, err := s.CreatePayload(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, newOrder, payload["order_id"])
}

func TestVehicleStatusToggle(t *testing.T) {
	store := testutil.SQLiteStore(t)
	b := backend.NewMapped(store)
	reg := newRegistry(b)
	ctx := context.Background()
	vehicles := catalog.MustLookup(catalog.Vehicle)

	s, err := reg.Lookup(catalog.Vehicle)
	require.NoError(t, err)

	err = store.WithScope(ctx, func(scope *database.Scope) error {
		payload, err := s.CreatePayload(ctx, scope)
		require.NoError(t, err)
		require.Equal(t, "available", payload["status"])
		key, err := b.Create(ctx, scope, vehicles, payload)
		require.NoError(t, err)

		for _, tc := range []struct{ from, to string }{
			{"available", "busy"},
			{"busy", "available"},
			{"maintenance", "available"},
		} {
			require.NoError(t, b.Update(ctx, scope, vehicles, key, backend.Record{"status": tc.from}))
			upd, err := s.UpdatePayload(ctx, scope, key)
			require.NoError(t, err)
			assert.Equal(t, tc.to, upd["status"], "from %s", tc.from)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestUpdatePayloads(t *testing.T) {
	store := testutil.SQLiteStore(t)
	reg := newRegistry(backend.NewDirect(store, backend.LeftJoin))
	ctx := context.Background()

	want := map[string]string{
		catalog.Order:       "order_status",
		catalog.TripDetails: "actual_trip_status",
		catalog.TripLog:     "status",
		catalog.Client:      "phone",
		catalog.Driver:      "phone",
	}
	for name, col := range want {
		s, err := reg.Lookup(name)
		require.NoError(t, err)
		payload, err := s.UpdatePayload(ctx, nil, 1)
		require.NoError(t, err)
		assert.Contains(t, payload, col, name)
	}
}

func TestReplayOrders(t *testing.T) {
	store := testutil.SQLiteStore(t)
	cargo := "steel"
	rec := seed.OrderRecord{
		ClientID:             3,
		DriverID:             4,
		VehicleID:            5,
		RouteFrom:            "Kazan",
		RouteTo:              "Ufa",
		PlannedDepartureTime: time.Date(2024, 4, 1, 6, 0, 0, 0, time.UTC),
		PlannedArrivalTime:   time.Date(2024, 4, 1, 15, 0, 0, 0, time.UTC),
		CargoDetails:         &cargo,
		OrderStatus:          "pending",
	}
	reg := newRegistry(backend.NewDirect(store, backend.LeftJoin),
		generator.WithSeed(seed.NewSequence([]seed.OrderRecord{rec})))

	s, err := reg.Lookup(catalog.Order)
	require.NoError(t, err)

	payload, err := s.CreatePayload(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), payload["client_id"])
	assert.Equal(t, int64(5), payload["vehicle_id"])
	assert.Equal(t, "steel", payload["cargo_details"])
	assert.Equal(t, rec.PlannedDepartureTime, payload["planned_departure_time"])

	_, err = s.CreatePayload(context.Background(), nil)
	assert.ErrorIs(t, err, generator.ErrSeedExhausted)
}

func TestSeededRandomnessIsRepeatable(t *testing.T) {
	store := testutil.SQLiteStore(t)
	b := backend.NewDirect(store, backend.LeftJoin)

	phones := func() []interface{} {
		s, err := newRegistry(b).Lookup(catalog.Client)
		require.NoError(t, err)
		var out []interface{}
		for i := 0; i < 5; i++ {
			p, err := s.UpdatePayload(context.Background(), nil, 1)
			require.NoError(t, err)
			out = append(out, p["phone"])
		}
		return out
	}
	assert.Equal(t, phones(), phones())
}
