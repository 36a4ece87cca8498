package dblib

import (
	"database/sql"
	"fmt"
)

// DatabaseHandler defines database-specific operations for a particular database type.
// Each backend (SQLite, PostgreSQL, MySQL) implements it to provide schema
// introspection, key selection and SQL text conventions.
type DatabaseHandler interface {
	// LoadColumns loads column metadata for a table or view.
	// Returns:
	//   - columns: slice of Column structs with name, declared type, nullable and kind
	//   - columnIndex: map from column name to index in columns slice
	//   - error: if the relation doesn't exist or the query fails
	LoadColumns(db *sql.DB, tableName string) ([]Column, map[string]int, error)

	// GetBestKey identifies the best key column(s) for a relation using system tables.
	// Ranking preferences (in order of priority):
	//   1. Primary keys over unique constraints with NOT NULL columns
	//   2. Fewer columns over more columns
	//   3. Shorter columns over longer columns (by estimated byte width)
	//   4. Earlier columns over later columns in the table definition
	//
	// Returns the column names comprising the best key, or empty slice if no suitable key exists.
	GetBestKey(db *sql.DB, tableName string) ([]string, error)

	// QuoteIdent quotes an identifier for safe use in SQL:
	//   - MySQL: backticks `identifier`
	//   - PostgreSQL, SQLite: double quotes "identifier"
	QuoteIdent(ident string) string

	// Placeholder returns the parameter placeholder for position i (1-indexed):
	//   - PostgreSQL: $1, $2, $3, ...
	//   - MySQL, SQLite: ?, ?, ?, ...
	Placeholder(position int) string
}

// NewDatabaseHandler creates a DatabaseHandler for the given database type.
func NewDatabaseHandler(dbType DatabaseType) (DatabaseHandler, error) {
	switch dbType {
	case MySQL:
		return &MySQLHandler{}, nil
	case PostgreSQL:
		return &PostgresHandler{}, nil
	case SQLite:
		return &SQLiteHandler{}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %v", dbType)
	}
}
