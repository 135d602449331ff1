package backend

import (
	"context"
	"time"

	"github.com/gocraft/dbr/v2"

	"transport-benchmark/internal/catalog"
)

// Typed models the mapped path loads rows into.

type clientModel struct {
	ClientID      int64  `db:"client_id"`
	ClientType    string `db:"client_type"`
	Name          string `db:"name_"`
	ContactPerson string `db:"contact_person"`
	Phone         string `db:"phone"`
	Email         string `db:"email"`
}

func (m clientModel) record() Record {
	return Record{
		"client_id":      m.ClientID,
		"client_type":    m.ClientType,
		"name_":          m.Name,
		"contact_person": m.ContactPerson,
		"phone":          m.Phone,
		"email":          m.Email,
	}
}

type driverModel struct {
	DriverID        int64  `db:"driver_id"`
	FirstName       string `db:"first_name"`
	LastName        string `db:"last_name"`
	LicenseNumber   string `db:"license_number"`
	LicenseCategory string `db:"license_category"`
	Email           string `db:"email"`
	Phone           string `db:"phone"`
}

func (m driverModel) record() Record {
	return Record{
		"driver_id":        m.DriverID,
		"first_name":       m.FirstName,
		"last_name":        m.LastName,
		"license_number":   m.LicenseNumber,
		"license_category": m.LicenseCategory,
		"email":            m.Email,
		"phone":            m.Phone,
	}
}

type vehicleModel struct {
	VehicleID                int64   `db:"vehicle_id"`
	RegistrationNumber       string  `db:"registration_number"`
	VehicleType              string  `db:"vehicle_type"`
	Make                     string  `db:"make"`
	Model                    string  `db:"model"`
	TechnicalCharacteristics *string `db:"technical_characteristics"`
	Status                   string  `db:"status"`
}

func (m vehicleModel) record() Record {
	return Record{
		"vehicle_id":                m.VehicleID,
		"registration_number":       m.RegistrationNumber,
		"vehicle_type":              m.VehicleType,
		"make":                      m.Make,
		"model":                     m.Model,
		"technical_characteristics": nullable(m.TechnicalCharacteristics),
		"status":                    m.Status,
	}
}

type orderModel struct {
	OrderID              int64     `db:"order_id"`
	ClientID             int64     `db:"client_id"`
	RouteFrom            string    `db:"route_from"`
	RouteTo              string    `db:"route_to"`
	PlannedDepartureTime time.Time `db:"planned_departure_time"`
	PlannedArrivalTime   time.Time `db:"planned_arrival_time"`
	CargoDetails         *string   `db:"cargo_details"`
	OrderStatus          string    `db:"order_status"`
	DriverID             int64     `db:"driver_id"`
	VehicleID            int64     `db:"vehicle_id"`
}

func (m orderModel) record() Record {
	return Record{
		"order_id":               m.OrderID,
		"client_id":              m.ClientID,
		"route_from":             m.RouteFrom,
		"route_to":               m.RouteTo,
		"planned_departure_time": m.PlannedDepartureTime,
		"planned_arrival_time":   m.PlannedArrivalTime,
		"cargo_details":          nullable(m.CargoDetails),
		"order_status":           m.OrderStatus,
		"driver_id":              m.DriverID,
		"vehicle_id":             m.VehicleID,
	}
}

type tripDetailsModel struct {
	TripID           int64    `db:"trip_id"`
	OrderID          int64    `db:"order_id"`
	ActualTripStatus string   `db:"actual_trip_status"`
	FuelCost         *float64 `db:"fuel_cost"`
	OtherExpenses    *float64 `db:"other_expenses"`
	TotalCost        *float64 `db:"total_cost"`
	Revenue          *float64 `db:"revenue"`
}

func (m tripDetailsModel) record() Record {
	return Record{
		"trip_id":            m.TripID,
		"order_id":           m.OrderID,
		"actual_trip_status": m.ActualTripStatus,
		"fuel_cost":          nullable(m.FuelCost),
		"other_expenses":     nullable(m.OtherExpenses),
		"total_cost":         nullable(m.TotalCost),
		"revenue":            nullable(m.Revenue),
	}
}

type tripLogModel struct {
	LogID   int64     `db:"log_id"`
	TripID  int64     `db:"trip_id"`
	OrderID int64     `db:"order_id"`
	LogTime time.Time `db:"log_time"`
	Status  *string   `db:"status"`
	Notes   *string   `db:"notes"`
}

func (m tripLogModel) record() Record {
	return Record{
		"log_id":   m.LogID,
		"trip_id":  m.TripID,
		"order_id": m.OrderID,
		"log_time": m.LogTime,
		"status":   nullable(m.Status),
		"notes":    nullable(m.Notes),
	}
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

type model interface {
	record() Record
}

type loader func(ctx context.Context, stmt *dbr.SelectStmt) ([]Record, error)

func load[M model](ctx context.Context, stmt *dbr.SelectStmt) ([]Record, error) {
	var rows []M
	if _, err := stmt.LoadContext(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i := range rows {
		out[i] = rows[i].record()
	}
	return out, nil
}

var loaders = map[string]loader{
	catalog.Client:      load[clientModel],
	catalog.Driver:      load[driverModel],
	catalog.Vehicle:     load[vehicleModel],
	catalog.Order:       load[orderModel],
	catalog.TripDetails: load[tripDetailsModel],
	catalog.TripLog:     load[tripLogModel],
}
