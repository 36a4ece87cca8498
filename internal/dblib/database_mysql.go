package dblib

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// MySQLHandler implements DatabaseHandler for MySQL and MariaDB databases.
type MySQLHandler struct{}

// loadColumnsMySQL loads columns for a MySQL table or view in the current database.
func loadColumnsMySQL(db *sql.DB, tableName string) ([]Column, map[string]int, error) {
	query := `SELECT column_name, data_type, is_nullable
			FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`
	rows, err := db.Query(query, tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []Column
	columnIndex := make(map[string]int)

	for rows.Next() {
		var col Column
		var nullable string

		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, nil, err
		}
		col.Nullable = strings.ToLower(nullable) == "yes"
		col.Kind = KindOf(MySQL, col.Type)

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

// getBestKeyMySQL identifies the best key for a MySQL table from information_schema.statistics.
// Ranking: primary key > unique NOT NULL > fewer columns > shorter > earlier.
func getBestKeyMySQL(db *sql.DB, tableName string) ([]string, error) {
	type keyCandidate struct {
		cols       []string
		isPK       bool
		valid      bool
		totalSize  int
		minOrdinal int
	}

	query := `SELECT s.index_name, s.column_name, c.column_type,
	                 COALESCE(c.character_maximum_length, -1), c.ordinal_position, c.is_nullable
	          FROM information_schema.statistics s
	          JOIN information_schema.columns c
	            ON c.table_schema = s.table_schema AND c.table_name = s.table_name AND c.column_name = s.column_name
	          WHERE s.table_schema = DATABASE() AND s.table_name = ? AND s.non_unique = 0
	          ORDER BY s.index_name, s.seq_in_index`
	rows, err := db.Query(query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query index metadata: %w", err)
	}
	defer rows.Close()

	byIndex := make(map[string]*keyCandidate)
	var order []string
	for rows.Next() {
		var indexName, colName, colType, nullable string
		var maxLen int64
		var ordinal int
		if err := rows.Scan(&indexName, &colName, &colType, &maxLen, &ordinal, &nullable); err != nil {
			continue
		}
		cand, ok := byIndex[indexName]
		if !ok {
			cand = &keyCandidate{isPK: indexName == "PRIMARY", valid: true, minOrdinal: int(^uint(0) >> 1)}
			byIndex[indexName] = cand
			order = append(order, indexName)
		}
		if !cand.isPK && strings.ToLower(nullable) == "yes" {
			cand.valid = false
		}
		cand.cols = append(cand.cols, colName)
		cand.totalSize += sizeOf(colType, int(maxLen))
		if ordinal < cand.minOrdinal {
			cand.minOrdinal = ordinal
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var candidates []keyCandidate
	for _, name := range order {
		if byIndex[name].valid {
			candidates = append(candidates, *byIndex[name])
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

// LoadColumns loads column metadata for a MySQL table or view.
func (h *MySQLHandler) LoadColumns(db *sql.DB, tableName string) ([]Column, map[string]int, error) {
	return loadColumnsMySQL(db, tableName)
}

// GetBestKey identifies the best key column(s) for a MySQL table.
func (h *MySQLHandler) GetBestKey(db *sql.DB, tableName string) ([]string, error) {
	return getBestKeyMySQL(db, tableName)
}

// QuoteIdent quotes an identifier for MySQL using backticks.
func (h *MySQLHandler) QuoteIdent(ident string) string {
	return quoteIdent(MySQL, ident)
}

// Placeholder returns "?" for every position.
func (h *MySQLHandler) Placeholder(position int) string {
	return "?"
}
