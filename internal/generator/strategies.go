package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transport-benchmark/internal/backend"
	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
	"transport-benchmark/internal/seed"
)

var (
	firstNames = []string{"Ivan", "Anna", "Oleg", "Maria", "Pavel", "Elena", "Sergey", "Olga"}
	lastNames  = []string{"Petrov", "Smirnova", "Kuznetsov", "Popova", "Volkov", "Orlova"}
	cities     = []string{"Moscow", "Kazan", "Samara", "Perm", "Ufa", "Tver", "Omsk", "Tomsk"}
	makes      = []string{"Volvo", "Scania", "MAN", "KAMAZ", "Mercedes-Benz"}
	models     = []string{"FH16", "R450", "TGX", "54901", "Actros"}
)

type clientStrategy struct{ gen *gen }

func (s *clientStrategy) Entity() string { return catalog.Client }

func (s *clientStrategy) CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error) {
	sfx := s.gen.suffix()
	return backend.Record{
		"client_type":    s.gen.pick([]string{"individual", "company"}),
		"name_":          "Client " + sfx,
		"contact_person": s.gen.pick(firstNames) + " " + s.gen.pick(lastNames),
		"phone":          s.gen.phone(),
		"email":          "client-" + sfx + "@example.com",
	}, nil
}

func (s *clientStrategy) UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error) {
	return backend.Record{"phone": s.gen.phone()}, nil
}

type driverStrategy struct{ gen *gen }

func (s *driverStrategy) Entity() string { return catalog.Driver }

func (s *driverStrategy) CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error) {
	sfx := s.gen.suffix()
	return backend.Record{
		"first_name":       s.gen.pick(firstNames),
		"last_name":        s.gen.pick(lastNames),
		"license_number":   "LIC-" + sfx,
		"license_category": s.gen.pick([]string{"B", "C", "CE", "D"}),
		"email":            "driver-" + sfx + "@example.com",
		"phone":            s.gen.phone(),
	}, nil
}

func (s *driverStrategy) UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error) {
	return backend.Record{"phone": s.gen.phone()}, nil
}

type vehicleStrategy struct{ gen *gen }

func (s *vehicleStrategy) Entity() string { return catalog.Vehicle }

func (s *vehicleStrategy) CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error) {
	return backend.Record{
		"registration_number":       "REG-" + s.gen.suffix(),
		"vehicle_type":              s.gen.pick([]string{"truck", "van", "trailer"}),
		"make":                      s.gen.pick(makes),
		"model":                     s.gen.pick(models),
		"technical_characteristics": fmt.Sprintf("payload %d kg", 1000+s.gen.rng.Intn(20000)),
		"status":                    "available",
	}, nil
}

// UpdatePayload toggles the status read inside the same scope.
func (s *vehicleStrategy) UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error) {
	rec, err := s.gen.backend.Find(ctx, scope, catalog.MustLookup(catalog.Vehicle), key)
	if err != nil {
		return nil, err
	}
	status, _ := rec.String("status")
	return backend.Record{"status": toggleStatus(status)}, nil
}

func toggleStatus(status string) string {
	if status == "available" {
		return "busy"
	}
	return "available"
}

type orderStrategy struct{ gen *gen }

func (s *orderStrategy) Entity() string { return catalog.Order }

func (s *orderStrategy) CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error) {
	payload := backend.Record{}
	for _, fk := range catalog.MustLookup(catalog.Order).ForeignKeys {
		key, err := s.gen.parentKey(ctx, scope, fk.References)
		if err != nil {
			return nil, err
		}
		payload[fk.Field] = key
	}

	dep := time.Now().UTC().Truncate(time.Second).Add(time.Duration(1+s.gen.rng.Intn(72)) * time.Hour)
	from := s.gen.pick(cities)
	to := s.gen.pick(cities)
	payload["route_from"] = from
	payload["route_to"] = to
	payload["planned_departure_time"] = dep
	payload["planned_arrival_time"] = dep.Add(time.Duration(2+s.gen.rng.Intn(48)) * time.Hour)
	payload["cargo_details"] = fmt.Sprintf("%d pallets", 1+s.gen.rng.Intn(30))
	payload["order_status"] = "pending"
	return payload, nil
}

func (s *orderStrategy) UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error) {
	return backend.Record{"order_status": "in_transit"}, nil
}

// replayOrderStrategy inserts recorded orders verbatim.
type replayOrderStrategy struct {
	gen    *gen
	source seed.Source
}

func (s *replayOrderStrategy) Entity() string { return catalog.Order }

func (s *replayOrderStrategy) CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error) {
	rec, ok := s.source.Next()
	if !ok {
		return nil, ErrSeedExhausted
	}
	payload := backend.Record{
		"client_id":              rec.ClientID,
		"driver_id":              rec.DriverID,
		"vehicle_id":             rec.VehicleID,
		"route_from":             rec.RouteFrom,
		"route_to":               rec.RouteTo,
		"planned_departure_time": rec.PlannedDepartureTime,
		"planned_arrival_time":   rec.PlannedArrivalTime,
		"order_status":           rec.OrderStatus,
	}
	if rec.CargoDetails != nil {
		payload["cargo_details"] = *rec.CargoDetails
	}
	return payload, nil
}

func (s *replayOrderStrategy) UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error) {
	return backend.Record{"order_status": "in_transit"}, nil
}

type tripDetailsStrategy struct{ gen *gen }

func (s *tripDetailsStrategy) Entity() string { return catalog.TripDetails }

// CreatePayload picks among the first orders that have no trip details yet,
// since order_id is unique on tripdetails.
func (s *tripDetailsStrategy) CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error) {
	keys, err := s.gen.backend.SelectUnreferenced(ctx, scope,
		catalog.MustLookup(catalog.Order), catalog.MustLookup(catalog.TripDetails), "order_id", ParentPool)
	if err != nil {
		return nil, fmt.Errorf("read order keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: every order already has trip details", ErrNoAvailableParent)
	}

	fuel := s.gen.money(500)
	other := s.gen.money(200)
	return backend.Record{
		"order_id":           keys[s.gen.rng.Intn(len(keys))],
		"actual_trip_status": "ongoing",
		"fuel_cost":          fuel,
		"other_expenses":     other,
		"total_cost":         fuel + other,
		"revenue":            s.gen.money(2000),
	}, nil
}

func (s *tripDetailsStrategy) UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error) {
	return backend.Record{"actual_trip_status": "delayed"}, nil
}

type tripLogStrategy struct{ gen *gen }

func (s *tripLogStrategy) Entity() string { return catalog.TripLog }

func (s *tripLogStrategy) CreatePayload(ctx context.Context, scope *database.Scope) (backend.Record, error) {
	details := catalog.MustLookup(catalog.TripDetails)
	recs, err := s.gen.backend.SelectFields(ctx, scope, details, []string{details.PrimaryKey, "order_id"}, ParentPool)
	if err != nil {
		return nil, fmt.Errorf("read %s keys: %w", details.Name, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoAvailableParent, details.Name)
	}

	rec := recs[s.gen.rng.Intn(len(recs))]
	tripID, ok1 := rec.Int64(details.PrimaryKey)
	orderID, ok2 := rec.Int64("order_id")
	if !ok1 || !ok2 {
		return nil, errors.New("read tripdetails keys: non-integer key")
	}
	return backend.Record{
		"trip_id":  tripID,
		"order_id": orderID,
		"log_time": time.Now().UTC().Truncate(time.Second),
		"status":   s.gen.pick([]string{"departed", "checkpoint", "arrived"}),
		"notes":    "logged " + s.gen.suffix(),
	}, nil
}

func (s *tripLogStrategy) UpdatePayload(ctx context.Context, scope *database.Scope, key int64) (backend.Record, error) {
	return backend.Record{
		"status": "delayed",
		"notes":  "updated " + s.gen.suffix(),
	}, nil
}
