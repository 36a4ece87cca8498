package dblib

import (
	"context"
	"database/sql"
	"fmt"
)

// NewRelation loads the schema of tableName: its columns and best key.
func NewRelation(db *sql.DB, dbType DatabaseType, tableName string) (*Relation, error) {
	if tableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	wrapErr := func(err error) (*Relation, error) {
		return nil, fmt.Errorf("failed to load table schema: %w", err)
	}

	handler, err := NewDatabaseHandler(dbType)
	if err != nil {
		return wrapErr(err)
	}

	columns, columnIndex, err := handler.LoadColumns(db, tableName)
	if err != nil {
		return wrapErr(err)
	}

	key, err := handler.GetBestKey(db, tableName)
	if err != nil {
		// views have no indexes to rank; the selection key can still be set explicitly
		debugLog("best key for %s: %v\n", tableName, err)
		key = []string{}
	}

	return &Relation{
		DB:          db,
		DBType:      dbType,
		handler:     handler,
		Name:        tableName,
		Columns:     columns,
		ColumnIndex: columnIndex,
		Key:         key,
	}, nil
}

// FindColumn returns the column whose unqualified name equals the unqualified
// field name. The comparison is case-sensitive.
func (rel *Relation) FindColumn(field string) (Column, bool) {
	base := BaseName(field)
	if idx, ok := rel.ColumnIndex[base]; ok {
		return rel.Columns[idx], true
	}
	for _, col := range rel.Columns {
		if BaseName(col.Name) == base {
			return col, true
		}
	}
	return Column{}, false
}

// SelectionKey resolves the single column that selection sets are keyed by.
// An explicit key must be a column of the relation or the database's system row id.
// Without one, the relation's best key is used when it has a single column, then
// the system row id.
func (rel *Relation) SelectionKey(explicit string) (string, error) {
	systemId := databaseFeatures[rel.DBType].systemId
	if explicit != "" {
		if _, ok := rel.ColumnIndex[explicit]; ok || explicit == systemId {
			return explicit, nil
		}
		return "", fmt.Errorf("selection key %q is not a column of %s", explicit, rel.Name)
	}
	if len(rel.Key) == 1 {
		return rel.Key[0], nil
	}
	if systemId != "" {
		return systemId, nil
	}
	if len(rel.Key) > 1 {
		return "", fmt.Errorf("%s has a composite key %v; set the selection key explicitly", rel.Name, rel.Key)
	}
	return "", fmt.Errorf("%s has no usable key; set the selection key explicitly", rel.Name)
}

// OpenSelection opens a forward-only cursor over the values of column for the rows
// whose key is in keys, restricted by filter and ordered by key.
// With no keys the cursor is empty and the database is not queried.
// Callers must Close the cursor.
func (rel *Relation) OpenSelection(ctx context.Context, column, keyCol string, keys []any, filter string) (*SelectionCursor, error) {
	if len(keys) == 0 {
		return &SelectionCursor{}, nil
	}
	query := selectionQuery(rel.DBType, rel.Name, column, keyCol, len(keys), filter)
	debugLog("selection query: %s %v\n", query, keys)

	rows, err := rel.DB.QueryContext(ctx, query, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to read selection of %s: %w", rel.Name, err)
	}
	return &SelectionCursor{rows: rows}, nil
}

// ValidateFilter asks the database to compile filter as a row filter of this
// relation, in the database's own dialect. Nothing is executed.
func (rel *Relation) ValidateFilter(ctx context.Context, filter string) error {
	query := "SELECT 1 FROM " + quoteQualified(rel.DBType, rel.Name) + " WHERE " + filter
	debugLog("validate filter: %s\n", query)

	stmt, err := rel.DB.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	return stmt.Close()
}

// QuoteIdent quotes ident for this relation's database.
func (rel *Relation) QuoteIdent(ident string) string {
	return rel.handler.QuoteIdent(ident)
}

// SelectionCursor iterates the single-column result of a selection query.
type SelectionCursor struct {
	rows  *sql.Rows
	value any
	err   error
}

// Next advances to the next value. It returns false at the end or on error.
func (c *SelectionCursor) Next() bool {
	if c.rows == nil || c.err != nil {
		return false
	}
	if !c.rows.Next() {
		return false
	}
	var v any
	if err := c.rows.Scan(&v); err != nil {
		c.err = err
		return false
	}
	c.value = v
	return true
}

// Value returns the current value; nil for SQL NULL.
func (c *SelectionCursor) Value() any {
	return c.value
}

func (c *SelectionCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if c.rows != nil {
		return c.rows.Err()
	}
	return nil
}

// Close releases the underlying rows. It is safe to call more than once.
func (c *SelectionCursor) Close() error {
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	return err
}
