package transport

import (
	"fmt"
	"strings"

	"transport-benchmark/internal/catalog"
	"transport-benchmark/internal/database"
)

// columnTypes maps logical field types to SQL per dialect.
var columnTypes = map[string]map[catalog.FieldType]string{
	database.Postgres: {
		catalog.TypeInt:     "INTEGER",
		catalog.TypeString:  "VARCHAR(255)",
		catalog.TypeText:    "TEXT",
		catalog.TypeTime:    "TIMESTAMP",
		catalog.TypeDecimal: "DECIMAL(10, 2)",
		catalog.TypeEnum:    "VARCHAR(32)",
	},
	database.MySQL: {
		catalog.TypeInt:     "INT",
		catalog.TypeString:  "VARCHAR(255)",
		catalog.TypeText:    "TEXT",
		catalog.TypeTime:    "DATETIME",
		catalog.TypeDecimal: "DECIMAL(10, 2)",
	},
	database.SQLite: {
		catalog.TypeInt:     "INTEGER",
		catalog.TypeString:  "VARCHAR(255)",
		catalog.TypeText:    "TEXT",
		catalog.TypeTime:    "DATETIME",
		catalog.TypeDecimal: "DECIMAL(10, 2)",
		catalog.TypeEnum:    "VARCHAR(32)",
	},
}

var primaryKeyTypes = map[string]string{
	database.Postgres: "SERIAL PRIMARY KEY",
	database.MySQL:    "INT AUTO_INCREMENT PRIMARY KEY",
	database.SQLite:   "INTEGER PRIMARY KEY AUTOINCREMENT",
}

// GetEntitySchema renders the CREATE TABLE statement for e.
func GetEntitySchema(d database.Dialect, e *catalog.Entity) (string, error) {
	types, ok := columnTypes[d.Name()]
	if !ok {
		return "", fmt.Errorf("no schema for dialect %q", d.Name())
	}
	q := d.QuoteIdent

	lines := []string{fmt.Sprintf("%s %s", q(e.PrimaryKey), primaryKeyTypes[d.Name()])}
	for _, f := range e.Fields {
		var typ string
		if f.Type == catalog.TypeEnum && d.Name() == database.MySQL {
			typ = "ENUM(" + enumValues(f.Enum) + ")"
		} else {
			typ = types[f.Type]
		}
		col := q(f.Name) + " " + typ
		if !f.Nullable {
			col += " NOT NULL"
		}
		if f.Unique {
			col += " UNIQUE"
		}
		if f.Type == catalog.TypeEnum && d.Name() != database.MySQL {
			col += fmt.Sprintf(" CHECK (%s IN (%s))", q(f.Name), enumValues(f.Enum))
		}
		lines = append(lines, col)
	}
	for _, fk := range e.ForeignKeys {
		parent, err := catalog.Lookup(fk.References)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			q(fk.Field), q(parent.Name), q(parent.PrimaryKey)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", q(e.Name), strings.Join(lines, ",\n\t")), nil
}

func enumValues(vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}

// GetDropStatement renders the DROP TABLE statement for e.
func GetDropStatement(d database.Dialect, e *catalog.Entity) string {
	stmt := "DROP TABLE IF EXISTS " + d.QuoteIdent(e.Name)
	if d.Name() == database.Postgres {
		stmt += " CASCADE"
	}
	return stmt
}
