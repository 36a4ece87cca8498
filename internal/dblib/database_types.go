package dblib

import (
	"database/sql"
	"fmt"
	"strings"
)

type DatabaseType int

const (
	SQLite DatabaseType = iota
	PostgreSQL
	MySQL
)

type databaseFeature struct {
	systemId              string
	embedded              bool
	positionalPlaceholder bool
}

var databaseFeatures = map[DatabaseType]databaseFeature{
	SQLite: {
		systemId:              "rowid",
		embedded:              true,
		positionalPlaceholder: false,
	},
	PostgreSQL: {
		systemId:              "ctid",
		embedded:              false,
		positionalPlaceholder: true,
	},
	MySQL: {
		systemId:              "",
		embedded:              false,
		positionalPlaceholder: false,
	},
}

func (t DatabaseType) String() string {
	switch t {
	case SQLite:
		return "sqlite"
	case PostgreSQL:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return fmt.Sprintf("DatabaseType(%d)", int(t))
	}
}

// ParseDatabaseType maps the source type names accepted in a document to a DatabaseType.
func ParseDatabaseType(name string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return PostgreSQL, nil
	case "mysql", "mariadb":
		return MySQL, nil
	default:
		return 0, fmt.Errorf("unsupported database type: %q", name)
	}
}

// Relation is the schema of one table or view that a document view points at.
type Relation struct {
	DB      *sql.DB
	DBType  DatabaseType
	handler DatabaseHandler

	Name        string
	Columns     []Column       // ordered as declared
	ColumnIndex map[string]int // column name -> index into Columns
	Key         []string       // best key, empty if the relation has none
}

// Column is a field descriptor: declared type as reported by the database and the
// kind it maps to.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Kind     FieldKind
}
