package backend

import (
	"context"
	"fmt"

	"github.com/gocraft/dbr/v2"

	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
)

// Mapped loads rows into typed models through a dbr session and resolves
// includes with one extra keyed query per parent entity.
type Mapped struct {
	store *database.Store
	recv  *eventReceiver
	sess  *dbr.Session
}

func NewMapped(store *database.Store) *Mapped {
	recv := &eventReceiver{logger: store.Logger().Named("dbr")}
	conn := &dbr.Connection{
		DB:            store.DB(),
		Dialect:       store.Dialect().DBR(),
		EventReceiver: recv,
	}
	return &Mapped{store: store, recv: recv, sess: conn.NewSession(recv)}
}

func (m *Mapped) Name() string { return "mapped" }

// runner binds statements to the scope's transaction, or to the pool.
func (m *Mapped) runner(scope *database.Scope) dbr.SessionRunner {
	if scope == nil {
		return m.sess
	}
	return &dbr.Tx{
		EventReceiver: m.recv,
		Dialect:       m.store.Dialect().DBR(),
		Tx:            scope.Tx(),
	}
}

func (m *Mapped) selectAll(r dbr.SessionRunner, e *catalog.Entity) *dbr.SelectStmt {
	return r.Select(e.Columns()...).From(dbr.I(e.Name))
}

func (m *Mapped) loadInto(ctx context.Context, e *catalog.Entity, stmt *dbr.SelectStmt) ([]Record, error) {
	load, ok := loaders[e.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no model", catalog.ErrUnknownEntity, e.Name)
	}
	recs, err := load(ctx, stmt)
	return recs, m.store.Classify(err)
}

func (m *Mapped) Select(ctx context.Context, e *catalog.Entity, limit int, includes ...string) ([]Record, error) {
	parents, fks, err := includeTargets(e, includes)
	if err != nil {
		return nil, err
	}

	stmt := m.selectAll(m.sess, e).Limit(uint64(normalizeLimit(limit)))
	recs, err := m.loadInto(ctx, e, stmt)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", e.Name, err)
	}

	for i, parent := range parents {
		if err := m.attach(ctx, recs, parent, fks[i].Field); err != nil {
			return nil, fmt.Errorf("select %s include %s: %w", e.Name, parent.Name, err)
		}
	}
	return recs, nil
}

// attach loads the parent rows referenced through fkField and nests each one
// under its child record.
func (m *Mapped) attach(ctx context.Context, recs []Record, parent *catalog.Entity, fkField string) error {
	seen := make(map[int64]bool, len(recs))
	var ids []int64
	for _, rec := range recs {
		id, ok := rec.Int64(fkField)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	stmt := m.selectAll(m.sess, parent).Where(dbr.Eq(parent.PrimaryKey, ids))
	rows, err := m.loadInto(ctx, parent, stmt)
	if err != nil {
		return err
	}
	byKey := make(map[int64]Record, len(rows))
	for _, row := range rows {
		if k, ok := row.Int64(parent.PrimaryKey); ok {
			byKey[k] = row
		}
	}
	for _, rec := range recs {
		id, _ := rec.Int64(fkField)
		if row, ok := byKey[id]; ok {
			rec[parent.Name] = row
		}
	}
	return nil
}

func (m *Mapped) SelectFields(ctx context.Context, scope *database.Scope, e *catalog.Entity, fields []string, limit int) ([]Record, error) {
	if err := checkFields(e, fields); err != nil {
		return nil, err
	}

	rows, err := m.runner(scope).Select(fields...).
		From(dbr.I(e.Name)).
		OrderBy(e.PrimaryKey).
		Limit(uint64(normalizeLimit(limit))).
		RowsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select %s fields: %w", e.Name, m.store.Classify(err))
	}
	return scanRecords(rows)
}

func (m *Mapped) SelectUnreferenced(ctx context.Context, scope *database.Scope, parent, child *catalog.Entity, fkField string, limit int) ([]int64, error) {
	if err := checkForeignKey(parent, child, fkField); err != nil {
		return nil, err
	}

	var keys []int64
	_, err := m.runner(scope).Select("p."+parent.PrimaryKey).
		From(dbr.I(parent.Name).As("p")).
		LeftJoin(dbr.I(child.Name).As("c"), fmt.Sprintf("c.%s = p.%s", fkField, parent.PrimaryKey)).
		Where("c." + child.PrimaryKey + " IS NULL").
		OrderBy("p." + parent.PrimaryKey).
		Limit(uint64(normalizeLimit(limit))).
		LoadContext(ctx, &keys)
	if err != nil {
		return nil, fmt.Errorf("select unreferenced %s: %w", parent.Name, m.store.Classify(err))
	}
	return keys, nil
}

func (m *Mapped) Find(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64) (Record, error) {
	stmt := m.selectAll(m.runner(scope), e).Where(dbr.Eq(e.PrimaryKey, key))
	recs, err := m.loadInto(ctx, e, stmt)
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", e.Name, key, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s %d: %w", e.Name, key, ErrNotFound)
	}
	return recs[0], nil
}

func (m *Mapped) Create(ctx context.Context, scope *database.Scope, e *catalog.Entity, payload Record) (int64, error) {
	cols, vals, err := payloadColumns(e, payload)
	if err != nil {
		return 0, err
	}

	stmt := m.runner(scope).InsertInto(e.Name)
	for i, c := range cols {
		stmt = stmt.Pair(c, vals[i])
	}

	var id int64
	if m.store.Dialect().Returning() {
		if err := stmt.Returning(e.PrimaryKey).LoadContext(ctx, &id); err != nil {
			return 0, fmt.Errorf("insert %s: %w", e.Name, m.store.Classify(err))
		}
		return id, nil
	}

	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", e.Name, m.store.Classify(err))
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last insert id: %w", e.Name, err)
	}
	return id, nil
}

func (m *Mapped) Update(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64, payload Record) error {
	cols, vals, err := payloadColumns(e, payload)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	set := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		set[c] = vals[i]
	}
	_, err = m.runner(scope).Update(e.Name).
		SetMap(set).
		Where(dbr.Eq(e.PrimaryKey, key)).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", e.Name, key, m.store.Classify(err))
	}
	return nil
}

func (m *Mapped) Destroy(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64) error {
	_, err := m.runner(scope).DeleteFrom(e.Name).
		Where(dbr.Eq(e.PrimaryKey, key)).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", e.Name, key, m.store.Classify(err))
	}
	return nil
}
