// Package catalog describes the fixed transport-company schema: six entities,
// their columns and the foreign keys between them.
package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownEntity is returned when a caller names a table outside the catalog.
var ErrUnknownEntity = errors.New("unknown entity")

// FieldType is the logical column type, mapped to SQL per dialect.
type FieldType int

const (
	TypeInt FieldType = iota
	TypeString
	TypeText
	TypeTime
	TypeDecimal
	TypeEnum
)

// Field is one non-key column.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
	Unique   bool
	Enum     []string
}

// ForeignKey links Field to the primary key of the References entity.
type ForeignKey struct {
	Field      string
	References string
}

// Entity is a relational table with an auto-generated integer primary key.
type Entity struct {
	Name        string
	PrimaryKey  string
	Fields      []Field
	ForeignKeys []ForeignKey

	// Includes is the natural eager-load pattern used by the select sweep.
	Includes []string
}

// Columns returns the primary key followed by every field name.
func (e *Entity) Columns() []string {
	cols := make([]string, 0, len(e.Fields)+1)
	cols = append(cols, e.PrimaryKey)
	for _, f := range e.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Field looks up a column by name.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ForeignKeyTo returns the foreign key pointing at the named entity.
func (e *Entity) ForeignKeyTo(entity string) (ForeignKey, bool) {
	for _, fk := range e.ForeignKeys {
		if fk.References == entity {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

// Parents lists the distinct entities this one references, in key order.
func (e *Entity) Parents() []string {
	seen := make(map[string]bool, len(e.ForeignKeys))
	var out []string
	for _, fk := range e.ForeignKeys {
		if !seen[fk.References] {
			seen[fk.References] = true
			out = append(out, fk.References)
		}
	}
	return out
}

// Entity names, in catalog (dependency) order.
const (
	Client      = "client"
	Driver      = "driver"
	Vehicle     = "vehicle"
	Order       = "order"
	TripDetails = "tripdetails"
	TripLog     = "triplog"
)

var entities = []*Entity{
	{
		Name:       Client,
		PrimaryKey: "client_id",
		Fields: []Field{
			{Name: "client_type", Type: TypeString},
			{Name: "name_", Type: TypeString},
			{Name: "contact_person", Type: TypeString},
			{Name: "phone", Type: TypeString},
			{Name: "email", Type: TypeString, Unique: true},
		},
	},
	{
		Name:       Driver,
		PrimaryKey: "driver_id",
		Fields: []Field{
			{Name: "first_name", Type: TypeString},
			{Name: "last_name", Type: TypeString},
			{Name: "license_number", Type: TypeString, Unique: true},
			{Name: "license_category", Type: TypeString},
			{Name: "email", Type: TypeString},
			{Name: "phone", Type: TypeString},
		},
	},
	{
		Name:       Vehicle,
		PrimaryKey: "vehicle_id",
		Fields: []Field{
			{Name: "registration_number", Type: TypeString, Unique: true},
			{Name: "vehicle_type", Type: TypeString},
			{Name: "make", Type: TypeString},
			{Name: "model", Type: TypeString},
			{Name: "technical_characteristics", Type: TypeText, Nullable: true},
			{Name: "status", Type: TypeEnum, Enum: []string{"available", "busy", "maintenance"}},
		},
	},
	{
		Name:       Order,
		PrimaryKey: "order_id",
		Fields: []Field{
			{Name: "client_id", Type: TypeInt},
			{Name: "route_from", Type: TypeString},
			{Name: "route_to", Type: TypeString},
			{Name: "planned_departure_time", Type: TypeTime},
			{Name: "planned_arrival_time", Type: TypeTime},
			{Name: "cargo_details", Type: TypeText, Nullable: true},
			{Name: "order_status", Type: TypeString},
			{Name: "driver_id", Type: TypeInt},
			{Name: "vehicle_id", Type: TypeInt},
		},
		ForeignKeys: []ForeignKey{
			{Field: "client_id", References: Client},
			{Field: "driver_id", References: Driver},
			{Field: "vehicle_id", References: Vehicle},
		},
		Includes: []string{Client, Driver, Vehicle},
	},
	{
		Name:       TripDetails,
		PrimaryKey: "trip_id",
		Fields: []Field{
			{Name: "order_id", Type: TypeInt, Unique: true},
			{Name: "actual_trip_status", Type: TypeEnum, Enum: []string{"completed", "delayed", "ongoing"}},
			{Name: "fuel_cost", Type: TypeDecimal, Nullable: true},
			{Name: "other_expenses", Type: TypeDecimal, Nullable: true},
			{Name: "total_cost", Type: TypeDecimal, Nullable: true},
			{Name: "revenue", Type: TypeDecimal, Nullable: true},
		},
		ForeignKeys: []ForeignKey{
			{Field: "order_id", References: Order},
		},
		Includes: []string{Order},
	},
	{
		Name:       TripLog,
		PrimaryKey: "log_id",
		Fields: []Field{
			{Name: "trip_id", Type: TypeInt},
			{Name: "order_id", Type: TypeInt},
			{Name: "log_time", Type: TypeTime},
			{Name: "status", Type: TypeString, Nullable: true},
			{Name: "notes", Type: TypeText, Nullable: true},
		},
		ForeignKeys: []ForeignKey{
			{Field: "trip_id", References: TripDetails},
			{Field: "order_id", References: Order},
		},
		Includes: []string{TripDetails, Order},
	},
}

var byName = func() map[string]*Entity {
	m := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		m[e.Name] = e
	}
	return m
}()

// List returns every entity in catalog order. Parents always precede children.
func List() []*Entity {
	out := make([]*Entity, len(entities))
	copy(out, entities)
	return out
}

// Names returns the entity names in catalog order.
func Names() []string {
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.Name
	}
	return names
}

// Lookup resolves an entity by name.
func Lookup(name string) (*Entity, error) {
	e, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return e, nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) *Entity {
	e, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return e
}

// Validate checks the catalog invariants: foreign keys reference known
// entities declared earlier in the list, and key columns are declared fields.
func Validate() error {
	return validate(entities)
}

func validate(list []*Entity) error {
	seen := make(map[string]bool, len(list))
	for _, e := range list {
		if _, ok := e.Field(e.PrimaryKey); ok {
			return fmt.Errorf("entity %s: primary key %s declared as a field", e.Name, e.PrimaryKey)
		}
		for _, parent := range e.Parents() {
			if !seen[parent] {
				return fmt.Errorf("entity %s: references %q which is not declared before it", e.Name, parent)
			}
		}
		for _, fk := range e.ForeignKeys {
			if _, ok := e.Field(fk.Field); !ok {
				return fmt.Errorf("entity %s: foreign key field %s is not a column", e.Name, fk.Field)
			}
		}
		for _, inc := range e.Includes {
			if _, ok := e.ForeignKeyTo(inc); !ok {
				return fmt.Errorf("entity %s: include %q has no foreign key", e.Name, inc)
			}
		}
		seen[e.Name] = true
	}
	return nil
}
