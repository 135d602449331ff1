package seed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const fixture = `[
  {
    "client_id": 1,
    "driver_id": 2,
    "vehicle_id": 3,
    "route_from": "Kazan",
    "route_to": "Samara",
    "planned_departure_time": "2024-03-01T08:00:00Z",
    "planned_arrival_time": "2024-03-01T18:30:00Z",
    "cargo_details": "pallets",
    "order_status": "pending"
  },
  {
    "client_id": 4,
    "driver_id": 5,
    "vehicle_id": 6,
    "route_from": "Perm",
    "route_to": "Ufa",
    "planned_departure_time": "2024-03-02T09:00:00Z",
    "planned_arrival_time": "2024-03-02T20:00:00Z",
    "order_status": "pending"
  }
]`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	seq, err := LoadJSON(writeFixture(t, fixture))
	require.NoError(t, err)
	require.Equal(t, 2, seq.Len())

	first, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, int64(1), first.ClientID)
	assert.Equal(t, int64(3), first.VehicleID)
	assert.Equal(t, "Kazan", first.RouteFrom)
	assert.True(t, first.PlannedDepartureTime.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)))
	require.NotNil(t, first.CargoDetails)
	assert.Equal(t, "pallets", *first.CargoDetails)

	second, ok := seq.Next()
	require.True(t, ok)
	assert.Nil(t, second.CargoDetails)
	assert.Equal(t, "Perm", second.RouteFrom)
}

func TestLoadJSONErrors(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadJSON(writeFixture(t, `{"not": "an array"}`))
	assert.Error(t, err)
}

func TestSequenceExhaustionAndReset(t *testing.T) {
	seq := NewSequence([]OrderRecord{{RouteFrom: "a"}})

	_, ok := seq.Next()
	require.True(t, ok)
	_, ok = seq.Next()
	assert.False(t, ok)
	assert.Equal(t, 0, seq.Len())

	seq.Reset()
	rec, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, "a", rec.RouteFrom)
}

func TestOrderRecordBSONFields(t *testing.T) {
	dep := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"_id":                    "seed-1",
		"client_id":              int64(11),
		"driver_id":              int64(12),
		"vehicle_id":             int64(13),
		"route_from":             "Omsk",
		"route_to":               "Tomsk",
		"planned_departure_time": dep,
		"planned_arrival_time":   dep.Add(6 * time.Hour),
		"order_status":           "pending",
	})
	require.NoError(t, err)

	var rec OrderRecord
	require.NoError(t, bson.Unmarshal(raw, &rec))
	assert.Equal(t, int64(11), rec.ClientID)
	assert.Equal(t, int64(12), rec.DriverID)
	assert.Equal(t, int64(13), rec.VehicleID)
	assert.Equal(t, "Tomsk", rec.RouteTo)
	assert.True(t, rec.PlannedDepartureTime.Equal(dep))
	assert.True(t, rec.PlannedArrivalTime.Equal(dep.Add(6*time.Hour)))
	assert.Nil(t, rec.CargoDetails)
}
