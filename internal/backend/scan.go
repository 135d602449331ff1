package backend

import (
	"database/sql"
	"strings"
)

// aliasSep joins an included entity name and its column in result aliases.
const aliasSep = "__"

func alias(entity, column string) string {
	return entity + aliasSep + column
}

// scanRecords reads every row into a Record. Columns aliased as
// entity__column are nested under entity; nested rows whose values are all
// NULL (an outer join without a match) are dropped.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Record
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(Record, len(cols))
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			entity, column, nested := strings.Cut(col, aliasSep)
			if !nested {
				rec[col] = v
				continue
			}
			sub, ok := rec[entity].(Record)
			if !ok {
				sub = Record{}
				rec[entity] = sub
			}
			sub[column] = v
		}

		for k, v := range rec {
			if sub, ok := v.(Record); ok && allNil(sub) {
				delete(rec, k)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func allNil(r Record) bool {
	for _, v := range r {
		if v != nil {
			return false
		}
	}
	return true
}
