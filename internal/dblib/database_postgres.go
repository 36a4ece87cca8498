package dblib

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// PostgresHandler implements DatabaseHandler for PostgreSQL databases.
type PostgresHandler struct{}

// splitSchema extracts schema and relation name, defaulting to the public schema.
func splitSchema(tableName string) (string, string) {
	if dot := strings.IndexByte(tableName, '.'); dot != -1 {
		return tableName[:dot], tableName[dot+1:]
	}
	return "public", tableName
}

// loadColumnsPostgreSQL loads columns for a PostgreSQL table or view.
// USER-DEFINED columns (enums, PostGIS geometry) are typed by their udt_name.
func loadColumnsPostgreSQL(db *sql.DB, tableName string) ([]Column, map[string]int, error) {
	schema, rel := splitSchema(tableName)

	query := `SELECT column_name, data_type, udt_name, is_nullable
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`
	rows, err := db.Query(query, schema, rel)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []Column
	columnIndex := make(map[string]int)

	for rows.Next() {
		var col Column
		var udtName, nullable string

		if err := rows.Scan(&col.Name, &col.Type, &udtName, &nullable); err != nil {
			return nil, nil, err
		}
		if col.Type == "USER-DEFINED" {
			col.Type = udtName
		}
		col.Nullable = strings.ToLower(nullable) == "yes"
		col.Kind = KindOf(PostgreSQL, col.Type)

		columnIndex[col.Name] = len(columns)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("relation %s not found", tableName)
	}
	return columns, columnIndex, nil
}

// getBestKeyPostgreSQL identifies the best key for a PostgreSQL table.
// Ranking: primary key > unique NOT NULL > fewer columns > shorter > earlier.
func getBestKeyPostgreSQL(db *sql.DB, tableName string) ([]string, error) {
	type keyCandidate struct {
		cols       []string
		isPK       bool
		totalSize  int
		minOrdinal int
	}
	type colMeta struct {
		dataType string
		length   int
		ordinal  int
		notNull  bool
	}

	schema, rel := splitSchema(tableName)

	colInfo := make(map[string]colMeta)
	colQuery := `SELECT column_name, data_type,
	                    COALESCE(character_maximum_length, -1) AS max_len,
	                    ordinal_position, is_nullable
	             FROM information_schema.columns
	             WHERE table_schema = $1 AND table_name = $2`
	colRows, err := db.Query(colQuery, schema, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	for colRows.Next() {
		var name, dtype, isNullable string
		var maxLen, ordinal int
		if err := colRows.Scan(&name, &dtype, &maxLen, &ordinal, &isNullable); err != nil {
			continue
		}
		colInfo[name] = colMeta{dataType: dtype, length: maxLen, ordinal: ordinal, notNull: strings.ToLower(isNullable) == "no"}
	}
	colRows.Close()

	// One row per (index, column) in key order; primary keys and unique indexes only.
	idxQuery := `SELECT i.indexrelid::regclass::text, i.indisprimary, a.attname
	             FROM pg_index i
	             JOIN pg_class c ON c.oid = i.indrelid
	             JOIN pg_namespace n ON n.oid = c.relnamespace
	             JOIN LATERAL unnest(i.indkey) WITH ORDINALITY AS k(attnum, ord) ON TRUE
	             JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum
	             WHERE n.nspname = $1 AND c.relname = $2
	               AND (i.indisprimary OR i.indisunique) AND i.indpred IS NULL
	             ORDER BY i.indexrelid, k.ord`
	idxRows, err := db.Query(idxQuery, schema, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	byIndex := make(map[string]*keyCandidate)
	var order []string
	for idxRows.Next() {
		var indexName, colName string
		var isPK bool
		if err := idxRows.Scan(&indexName, &isPK, &colName); err != nil {
			continue
		}
		cand, ok := byIndex[indexName]
		if !ok {
			cand = &keyCandidate{isPK: isPK, minOrdinal: int(^uint(0) >> 1)}
			byIndex[indexName] = cand
			order = append(order, indexName)
		}
		cand.cols = append(cand.cols, colName)
	}
	idxRows.Close()

	var candidates []keyCandidate
	for _, name := range order {
		cand := byIndex[name]
		valid := true
		for _, c := range cand.cols {
			info, ok := colInfo[c]
			if !ok || (!cand.isPK && !info.notNull) {
				valid = false
				break
			}
			cand.totalSize += sizeOf(info.dataType, info.length)
			if info.ordinal < cand.minOrdinal {
				cand.minOrdinal = info.ordinal
			}
		}
		if valid {
			candidates = append(candidates, *cand)
		}
	}

	if len(candidates) == 0 {
		return []string{}, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].isPK != candidates[j].isPK {
			return candidates[i].isPK
		}
		if len(candidates[i].cols) != len(candidates[j].cols) {
			return len(candidates[i].cols) < len(candidates[j].cols)
		}
		if candidates[i].totalSize != candidates[j].totalSize {
			return candidates[i].totalSize < candidates[j].totalSize
		}
		return candidates[i].minOrdinal < candidates[j].minOrdinal
	})
	return candidates[0].cols, nil
}

// LoadColumns loads column metadata for a PostgreSQL table or view.
func (h *PostgresHandler) LoadColumns(db *sql.DB, tableName string) ([]Column, map[string]int, error) {
	return loadColumnsPostgreSQL(db, tableName)
}

// GetBestKey identifies the best key column(s) for a PostgreSQL table.
func (h *PostgresHandler) GetBestKey(db *sql.DB, tableName string) ([]string, error) {
	return getBestKeyPostgreSQL(db, tableName)
}

// QuoteIdent quotes an identifier (table/column name) for PostgreSQL using double quotes.
func (h *PostgresHandler) QuoteIdent(ident string) string {
	return quoteIdent(PostgreSQL, ident)
}

// Placeholder returns the parameter placeholder for PostgreSQL (positional: $1, $2, etc.).
func (h *PostgresHandler) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}
