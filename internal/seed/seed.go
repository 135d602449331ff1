// Package seed supplies pre-recorded order rows for replay mode.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// OrderRecord is one recorded order. Values are inserted verbatim, so the
// referenced client, driver and vehicle keys must exist in the target database.
type OrderRecord struct {
	ClientID             int64     `json:"client_id" bson:"client_id"`
	DriverID             int64     `json:"driver_id" bson:"driver_id"`
	VehicleID            int64     `json:"vehicle_id" bson:"vehicle_id"`
	RouteFrom            string    `json:"route_from" bson:"route_from"`
	RouteTo              string    `json:"route_to" bson:"route_to"`
	PlannedDepartureTime time.Time `json:"planned_departure_time" bson:"planned_departure_time"`
	PlannedArrivalTime   time.Time `json:"planned_arrival_time" bson:"planned_arrival_time"`
	CargoDetails         *string   `json:"cargo_details,omitempty" bson:"cargo_details,omitempty"`
	OrderStatus          string    `json:"order_status" bson:"order_status"`
}

// Source yields recorded orders in order. ok is false once it is exhausted.
type Source interface {
	Next() (rec OrderRecord, ok bool)
	// Reset rewinds to the first record.
	Reset()
}

// Sequence is an in-memory Source.
type Sequence struct {
	records []OrderRecord
	pos     int
}

func NewSequence(records []OrderRecord) *Sequence {
	return &Sequence{records: records}
}

func (s *Sequence) Next() (OrderRecord, bool) {
	if s.pos >= len(s.records) {
		return OrderRecord{}, false
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, true
}

// Len is the number of records left.
func (s *Sequence) Len() int {
	return len(s.records) - s.pos
}

// Reset rewinds to the first record.
func (s *Sequence) Reset() {
	s.pos = 0
}

// LoadJSON reads a JSON array of orders. Times are RFC 3339.
func LoadJSON(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []OrderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return NewSequence(records), nil
}
