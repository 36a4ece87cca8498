package dblib

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SQLiteHandler implements DatabaseHandler for SQLite databases.
type SQLiteHandler struct{}

// loadColumnsSQLite loads columns for a SQLite table or view.
func loadColumnsSQLite(db *sql.DB, tableName string) ([]Column, map[string]int, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(SQLite, tableName))
	rows, err := db.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []Column
	columnIndex := make(map[string]int)

	for rows.Next() {
		var col Column
		var notNull string
		var cid, pk int
		var dfltValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dfltValue, &pk); err != nil {
			return nil, nil, err
		}
		col.Nullable = notNull != "1"
		col.Kind = KindOf(SQLite, col.Type)

		columnIndex[col.Name] = len(columns)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// PRAGMA table_info returns no rows rather than an error for a missing relation
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("relation %s not found", tableName)
	}
	return columns, columnIndex, nil
}

// getBestKeySQLite identifies the best key for a SQLite table using PRAGMA commands.
// Ranking: primary key > unique NOT NULL > fewer columns > shorter > earlier.
func getBestKeySQLite(db *sql.DB, tableName string) ([]string, error) {
	type keyCandidate struct {
		cols       []string
		isPK       bool
		numCols    int
		totalSize  int
		minOrdinal int // minimum column ID (cid) among columns in this key
	}
	type colMeta struct {
		cid      int
		dataType string
		notNull  bool
	}
	type ordEntry struct {
		ord  int
		name string
	}

	colInfo := make(map[string]colMeta)
	var pkEntries []ordEntry

	tiRows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(SQLite, tableName)))
	if err != nil {
		return nil, fmt.Errorf("failed to query table_info: %w", err)
	}
	for tiRows.Next() {
		var cid, pk int
		var name, dtype, notnullStr string
		var dflt sql.NullString
		if err := tiRows.Scan(&cid, &name, &dtype, &notnullStr, &dflt, &pk); err != nil {
			continue
		}
		colInfo[name] = colMeta{cid: cid, dataType: dtype, notNull: notnullStr == "1"}
		if pk > 0 {
			pkEntries = append(pkEntries, ordEntry{ord: pk, name: name})
		}
	}
	tiRows.Close()

	// measure sums the estimated width and the earliest cid of a key; ok is false when a
	// column is unknown or nullable and nullable columns are not allowed.
	measure := func(cols []string, allowNullable bool) (total, minCid int, ok bool) {
		minCid = int(^uint(0) >> 1)
		for _, c := range cols {
			info, found := colInfo[c]
			if !found || (!allowNullable && !info.notNull) {
				return 0, 0, false
			}
			total += sizeOf(info.dataType, -1)
			if info.cid < minCid {
				minCid = info.cid
			}
		}
		return total, minCid, true
	}

	var candidates []keyCandidate

	if len(pkEntries) > 0 {
		sort.Slice(pkEntries, func(i, j int) bool { return pkEntries[i].ord < pkEntries[j].ord })
		pkCols := make([]string, 0, len(pkEntries))
		for _, e := range pkEntries {
			pkCols = append(pkCols, e.name)
		}
		total, minCid, _ := measure(pkCols, true)
		candidates = append(candidates, keyCandidate{cols: pkCols, isPK: true, numCols: len(pkCols), totalSize: total, minOrdinal: minCid})
	}

	ilRows, err := db.Query(fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(SQLite, tableName)))
	if err != nil {
		return nil, fmt.Errorf("failed to query index_list: %w", err)
	}
	var uniqueIndexes []string
	for ilRows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := ilRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			continue
		}
		if unique != 1 || origin == "pk" {
			continue
		}
		uniqueIndexes = append(uniqueIndexes, name)
	}
	ilRows.Close()

	for _, name := range uniqueIndexes {
		iiRows, err := db.Query(fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(SQLite, name)))
		if err != nil {
			continue
		}
		var idxEntries []ordEntry
		for iiRows.Next() {
			var seqno, cid int
			var cname string
			if err := iiRows.Scan(&seqno, &cid, &cname); err == nil {
				idxEntries = append(idxEntries, ordEntry{ord: seqno, name: cname})
			}
		}
		iiRows.Close()
		if len(idxEntries) == 0 {
			continue
		}

		sort.Slice(idxEntries, func(i, j int) bool { return idxEntries[i].ord < idxEntries[j].ord })
		cols := make([]string, 0, len(idxEntries))
		for _, e := range idxEntries {
			cols = append(cols, e.name)
		}
		total, minCid, ok := measure(cols, false)
		if !ok {
			continue
		}
		candidates = append(candidates, keyCandidate{cols: cols, numCols: len(cols), totalSize: total, minOrdinal: minCid})
	}

	if len(candidates) == 0 {
		return []string{}, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].isPK != candidates[j].isPK {
			return candidates[i].isPK
		}
		if candidates[i].numCols != candidates[j].numCols {
			return candidates[i].numCols < candidates[j].numCols
		}
		if candidates[i].totalSize != candidates[j].totalSize {
			return candidates[i].totalSize < candidates[j].totalSize
		}
		return candidates[i].minOrdinal < candidates[j].minOrdinal
	})

	return candidates[0].cols, nil
}

// sizeOf estimates the byte width of a database column type.
func sizeOf(typ string, charLen int) int {
	t := strings.ToLower(strings.TrimSpace(typ))
	if charLen <= 0 {
		if i := strings.Index(t, "("); i != -1 {
			if j := strings.Index(t[i+1:], ")"); j != -1 {
				if n, err := strconv.Atoi(strings.TrimSpace(t[i+1 : i+1+j])); err == nil {
					charLen = n
				}
			}
		}
	}
	switch {
	case strings.Contains(t, "tinyint"):
		return 1
	case strings.Contains(t, "smallint"):
		return 2
	case strings.Contains(t, "bigint"):
		return 8
	case t == "int" || strings.Contains(t, "integer"):
		return 4
	case strings.Contains(t, "real") || strings.Contains(t, "double") || strings.Contains(t, "float"):
		return 8
	case strings.Contains(t, "bool"):
		return 1
	case strings.Contains(t, "uuid"):
		return 16
	case strings.Contains(t, "date") || strings.Contains(t, "time"):
		return 8
	case strings.Contains(t, "char") || strings.Contains(t, "text") || strings.Contains(t, "clob"):
		if charLen > 0 {
			return charLen
		}
		return 1024 * 1024
	case strings.Contains(t, "decimal") || strings.Contains(t, "numeric"):
		return 16
	case strings.Contains(t, "bytea") || strings.Contains(t, "blob") || strings.Contains(t, "binary"):
		return 1024 * 1024
	default:
		return 8
	}
}

// LoadColumns loads column metadata for a SQLite table or view.
func (h *SQLiteHandler) LoadColumns(db *sql.DB, tableName string) ([]Column, map[string]int, error) {
	return loadColumnsSQLite(db, tableName)
}

// GetBestKey identifies the best key column(s) for a SQLite table.
func (h *SQLiteHandler) GetBestKey(db *sql.DB, tableName string) ([]string, error) {
	return getBestKeySQLite(db, tableName)
}

// QuoteIdent quotes an identifier for SQLite using double quotes.
func (h *SQLiteHandler) QuoteIdent(ident string) string {
	return quoteIdent(SQLite, ident)
}

// Placeholder returns "?" for every position.
func (h *SQLiteHandler) Placeholder(position int) string {
	return "?"
}
