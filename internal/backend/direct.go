package backend

import (
	"context"
	"fmt"
	"strings"

	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
)

// JoinType is the join clause the direct path uses for includes.
type JoinType string

const (
	LeftJoin  JoinType = "LEFT JOIN"
	InnerJoin JoinType = "INNER JOIN"
)

// ParseJoinType accepts "left" or "inner".
func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return LeftJoin, nil
	case "inner":
		return InnerJoin, nil
	}
	return "", fmt.Errorf("unsupported join type %q", s)
}

// Direct runs hand-built parameterized queries through database/sql.
type Direct struct {
	store *database.Store
	join  JoinType
}

func NewDirect(store *database.Store, join JoinType) *Direct {
	if join == "" {
		join = LeftJoin
	}
	return &Direct{store: store, join: join}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) q(name string) string {
	return d.store.Dialect().QuoteIdent(name)
}

// args tracks positional placeholders for the current dialect.
type args struct {
	dialect database.Dialect
	values  []interface{}
}

func (a *args) add(v interface{}) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(len(a.values))
}

func (d *Direct) Select(ctx context.Context, e *catalog.Entity, limit int, includes ...string) ([]Record, error) {
	parents, fks, err := includeTargets(e, includes)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, col := range e.Columns() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "t0.%s AS %s", d.q(col), d.q(col))
	}
	for i, parent := range parents {
		ja := fmt.Sprintf("j%d", i+1)
		for _, col := range parent.Columns() {
			fmt.Fprintf(&sb, ", %s.%s AS %s", ja, d.q(col), d.q(alias(parent.Name, col)))
		}
	}
	fmt.Fprintf(&sb, " FROM %s t0", d.q(e.Name))
	for i, parent := range parents {
		ja := fmt.Sprintf("j%d", i+1)
		fmt.Fprintf(&sb, " %s %s %s ON %s.%s = t0.%s", d.join, d.q(parent.Name), ja,
			ja, d.q(parent.PrimaryKey), d.q(fks[i].Field))
	}
	a := &args{dialect: d.store.Dialect()}
	sb.WriteString(" LIMIT " + a.add(normalizeLimit(limit)))

	rows, err := d.store.QueryContext(ctx, nil, sb.String(), a.values...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", e.Name, err)
	}
	return scanRecords(rows)
}

func (d *Direct) SelectFields(ctx context.Context, scope *database.Scope, e *catalog.Entity, fields []string, limit int) ([]Record, error) {
	if err := checkFields(e, fields); err != nil {
		return nil, err
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = d.q(f)
	}
	a := &args{dialect: d.store.Dialect()}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %s",
		strings.Join(quoted, ", "), d.q(e.Name), d.q(e.PrimaryKey), a.add(normalizeLimit(limit)))

	rows, err := d.store.QueryContext(ctx, scope, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("select %s fields: %w", e.Name, err)
	}
	return scanRecords(rows)
}

func (d *Direct) SelectUnreferenced(ctx context.Context, scope *database.Scope, parent, child *catalog.Entity, fkField string, limit int) ([]int64, error) {
	if err := checkForeignKey(parent, child, fkField); err != nil {
		return nil, err
	}

	a := &args{dialect: d.store.Dialect()}
	query := fmt.Sprintf("SELECT p.%s FROM %s p LEFT JOIN %s c ON c.%s = p.%s WHERE c.%s IS NULL ORDER BY p.%s LIMIT %s",
		d.q(parent.PrimaryKey), d.q(parent.Name), d.q(child.Name),
		d.q(fkField), d.q(parent.PrimaryKey), d.q(child.PrimaryKey),
		d.q(parent.PrimaryKey), a.add(normalizeLimit(limit)))

	rows, err := d.store.QueryContext(ctx, scope, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("select unreferenced %s: %w", parent.Name, err)
	}
	defer rows.Close()

	var keys []int64
	for rows.Next() {
		var k int64
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (d *Direct) Find(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64) (Record, error) {
	cols := e.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.q(c)
	}
	a := &args{dialect: d.store.Dialect()}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(quoted, ", "), d.q(e.Name), d.q(e.PrimaryKey), a.add(key))

	rows, err := d.store.QueryContext(ctx, scope, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", e.Name, key, err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s %d: %w", e.Name, key, ErrNotFound)
	}
	return recs[0], nil
}

func (d *Direct) Create(ctx context.Context, scope *database.Scope, e *catalog.Entity, payload Record) (int64, error) {
	cols, vals, err := payloadColumns(e, payload)
	if err != nil {
		return 0, err
	}

	a := &args{dialect: d.store.Dialect()}
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.q(c)
		marks[i] = a.add(vals[i])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.q(e.Name), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	var id int64
	if d.store.Dialect().Returning() {
		query += " RETURNING " + d.q(e.PrimaryKey)
		err = d.store.QueryRowContext(ctx, scope, query, a.values...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", e.Name, d.store.Classify(err))
		}
		return id, nil
	}

	res, err := d.store.ExecContext(ctx, scope, query, a.values...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", e.Name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last insert id: %w", e.Name, err)
	}
	return id, nil
}

func (d *Direct) Update(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64, payload Record) error {
	cols, vals, err := payloadColumns(e, payload)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	a := &args{dialect: d.store.Dialect()}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = d.q(c) + " = " + a.add(vals[i])
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.q(e.Name), strings.Join(sets, ", "), d.q(e.PrimaryKey), a.add(key))

	if _, err := d.store.ExecContext(ctx, scope, query, a.values...); err != nil {
		return fmt.Errorf("update %s %d: %w", e.Name, key, err)
	}
	return nil
}

func (d *Direct) Destroy(ctx context.Context, scope *database.Scope, e *catalog.Entity, key int64) error {
	a := &args{dialect: d.store.Dialect()}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", d.q(e.Name), d.q(e.PrimaryKey), a.add(key))

	if _, err := d.store.ExecContext(ctx, scope, query, a.values...); err != nil {
		return fmt.Errorf("delete %s %d: %w", e.Name, key, err)
	}
	return nil
}
