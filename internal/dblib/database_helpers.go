package dblib

import (
	"fmt"
	"strings"
)

// selectionQuery builds the cursor query over the selected records of a relation:
// `SELECT field FROM rel WHERE key IN (?, ...) [AND (filter)] ORDER BY key`.
// filter is the view's current definition query and is inserted verbatim.
func selectionQuery(dbType DatabaseType, tableName, column, keyCol string, numKeys int, filter string) string {
	if numKeys <= 0 {
		panic("selectionQuery needs at least one key")
	}
	quotedKey := quoteIdent(dbType, keyCol)

	var builder strings.Builder
	builder.Grow(len(tableName) + len(column) + 2*len(quotedKey) + len(filter) + 4*numKeys + 48)

	builder.WriteString("SELECT ")
	builder.WriteString(quoteIdent(dbType, column))
	builder.WriteString(" FROM ")
	builder.WriteString(quoteQualified(dbType, tableName))
	builder.WriteString(" WHERE ")
	builder.WriteString(quotedKey)
	builder.WriteString(" IN (")
	for i := 0; i < numKeys; i++ {
		if i > 0 {
			builder.WriteString(", ")
		}
		if databaseFeatures[dbType].positionalPlaceholder {
			fmt.Fprintf(&builder, "$%d", i+1)
		} else {
			builder.WriteString("?")
		}
	}
	builder.WriteString(")")
	if filter = strings.TrimSpace(filter); filter != "" {
		builder.WriteString(" AND (")
		builder.WriteString(filter)
		builder.WriteString(")")
	}
	builder.WriteString(" ORDER BY ")
	builder.WriteString(quotedKey)
	return builder.String()
}

// BaseName returns the unqualified part of a field name: "parcels.Code" -> "Code".
func BaseName(field string) string {
	if dot := strings.LastIndexByte(field, '.'); dot != -1 {
		return field[dot+1:]
	}
	return field
}

// quoteIdent safely quotes an identifier (table/column) for the target DB.
// Attempts to minimize quoting by returning the identifier unquoted when it is
// obviously safe to do so:
// - comprised of lowercase letters, digits, and underscores
// - does not start with a digit
// - not a common SQL reserved keyword
// Otherwise it applies database-appropriate quoting with escaping.
func quoteIdent(dbType DatabaseType, ident string) string {
	if isSafeUnquotedIdent(ident) {
		return ident
	}

	switch dbType {
	case MySQL:
		escaped := strings.ReplaceAll(ident, "`", "``")
		return "`" + escaped + "`"
	default:
		escaped := strings.ReplaceAll(ident, "\"", "\"\"")
		return "\"" + escaped + "\""
	}
}

// quoteQualified splits on '.' and quotes each identifier part independently.
func quoteQualified(dbType DatabaseType, qualified string) string {
	parts := strings.Split(qualified, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(dbType, p)
	}
	return strings.Join(parts, ".")
}

// isSafeUnquotedIdent returns true if ident can be used without quotes in a
// portable way across supported databases (lowercase [a-z_][a-z0-9_]* and not a
// common reserved keyword).
func isSafeUnquotedIdent(ident string) bool {
	if ident == "" {
		return false
	}
	c0 := ident[0]
	if !((c0 >= 'a' && c0 <= 'z') || c0 == '_') {
		return false
	}
	for i := 1; i < len(ident); i++ {
		c := ident[i]
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	if _, ok := commonReservedIdents[ident]; ok {
		return false
	}
	return true
}

// Small, conservative set of common SQL reserved keywords to avoid unquoted.
var commonReservedIdents = map[string]struct{}{
	// DML/DDL
	"select": {}, "insert": {}, "update": {}, "delete": {}, "into": {}, "values": {},
	"create": {}, "alter": {}, "drop": {}, "table": {}, "index": {}, "view": {},
	// Clauses
	"from": {}, "where": {}, "group": {}, "order": {}, "by": {}, "having": {},
	"limit": {}, "offset": {}, "join": {}, "inner": {}, "left": {}, "right": {}, "full": {}, "outer": {},
	// Operators/Predicates
	"and": {}, "or": {}, "not": {}, "in": {}, "is": {}, "like": {}, "between": {}, "exists": {},
	// Literals
	"null": {}, "true": {}, "false": {},
	// Misc
	"as": {}, "on": {},
}
