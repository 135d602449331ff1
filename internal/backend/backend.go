// Package backend implements the two access paths under measurement: a mapped
// path that loads rows into typed models through gocraft/dbr, and a direct
// path that hand-builds parameterized SQL.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
)

// DefaultLimit applies when a caller passes a non-positive limit.
const DefaultLimit = 10

// ErrNotFound is returned by Find when no row has the key.
var ErrNotFound = errors.New("row not found")

// Backend is the capability set both access paths expose. A nil scope runs
// the call on the connection pool instead of inside a transaction.
type Backend interface {
	Name() string
	Select(ctx context.Context, e *catalog.Entity, limit int, includes ...string) ([]Record, error)
	SelectFields(ctx context.Context, scope *database.Scope, e *catalog.Entity, fields []string, limit int) ([]Record, error)
	// SelectUnreferenced returns the first limit parent keys that no child
	// row points at through fkField.
	SelectUnreferenced(ctx context.Context, scope *database.Scope, parent, child *catalog.Entity, fkField string, limit int) ([]int64, error)
	Find(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64) (Record, error)
	Create(ctx context.Context, scope *database.Scope, e *catalog.Entity, payload Record) (int64, error)
	// Update touches only the row with key; a missing key is not an error.
	Update(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64, payload Record) error
	// Destroy deletes the row with key; deleting a missing key is not an error.
	Destroy(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64) error
}

// Record is one row or write payload keyed by column name. Included parent
// rows are nested Records stored under the parent entity's name.
type Record map[string]interface{}

// Int64 reads an integer column regardless of the driver's scan type.
func (r Record) Int64(col string) (int64, bool) {
	switch v := r[col].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// String reads a text column.
func (r Record) String(col string) (string, bool) {
	switch v := r[col].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

// Nested returns the included parent row stored under entity.
func (r Record) Nested(entity string) (Record, bool) {
	n, ok := r[entity].(Record)
	return n, ok
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// includeTargets resolves include names to the parent entity and the foreign
// key that reaches it.
func includeTargets(e *catalog.Entity, includes []string) ([]*catalog.Entity, []catalog.ForeignKey, error) {
	parents := make([]*catalog.Entity, 0, len(includes))
	fks := make([]catalog.ForeignKey, 0, len(includes))
	for _, inc := range includes {
		fk, ok := e.ForeignKeyTo(inc)
		if !ok {
			return nil, nil, fmt.Errorf("%s has no relationship to %q", e.Name, inc)
		}
		parent, err := catalog.Lookup(inc)
		if err != nil {
			return nil, nil, err
		}
		parents = append(parents, parent)
		fks = append(fks, fk)
	}
	return parents, fks, nil
}

// payloadColumns orders the payload by the catalog's column order and rejects
// columns the entity does not have. The primary key is never writable.
func payloadColumns(e *catalog.Entity, payload Record) ([]string, []interface{}, error) {
	if _, ok := payload[e.PrimaryKey]; ok {
		return nil, nil, fmt.Errorf("%s: primary key %s is generated by the database", e.Name, e.PrimaryKey)
	}
	cols := make([]string, 0, len(payload))
	vals := make([]interface{}, 0, len(payload))
	for _, f := range e.Fields {
		v, ok := payload[f.Name]
		if !ok {
			continue
		}
		cols = append(cols, f.Name)
		vals = append(vals, v)
	}
	if len(cols) != len(payload) {
		for col := range payload {
			if _, ok := e.Field(col); !ok {
				return nil, nil, fmt.Errorf("%s has no column %q", e.Name, col)
			}
		}
	}
	return cols, vals, nil
}

func checkFields(e *catalog.Entity, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%s: no fields requested", e.Name)
	}
	for _, f := range fields {
		if f == e.PrimaryKey {
			continue
		}
		if _, ok := e.Field(f); !ok {
			return fmt.Errorf("%s has no column %q", e.Name, f)
		}
	}
	return nil
}

func checkForeignKey(parent, child *catalog.Entity, fkField string) error {
	for _, fk := range child.ForeignKeys {
		if fk.Field == fkField && fk.References == parent.Name {
			return nil
		}
	}
	return fmt.Errorf("%s.%s does not reference %s", child.Name, fkField, parent.Name)
}
