package dblib

import (
	"strings"
)

// FieldKind is the closed set of field types a selection query can be built over.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInteger
	KindSmallInteger
	KindSingle
	KindDouble
	KindOID
	KindDate
	KindBlob
	KindGeometry
	KindGUID
	KindGlobalID
	KindRaster
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindSmallInteger:
		return "SmallInteger"
	case KindSingle:
		return "Single"
	case KindDouble:
		return "Double"
	case KindOID:
		return "OID"
	case KindDate:
		return "Date"
	case KindBlob:
		return "Blob"
	case KindGeometry:
		return "Geometry"
	case KindGUID:
		return "Guid"
	case KindGlobalID:
		return "GlobalID"
	case KindRaster:
		return "Raster"
	}
	return "Unknown"
}

// Textual reports whether values of this kind are emitted as quoted string literals.
func (k FieldKind) Textual() bool {
	switch k {
	case KindString:
		return true
	case KindInteger, KindSmallInteger, KindSingle, KindDouble, KindOID,
		KindDate, KindBlob, KindGeometry, KindGUID, KindGlobalID, KindRaster:
		return false
	}
	return false
}

// Supported reports whether an IN clause can be built from values of this kind.
func (k FieldKind) Supported() bool {
	switch k {
	case KindString, KindInteger, KindSmallInteger, KindSingle, KindDouble, KindOID:
		return true
	case KindDate, KindBlob, KindGeometry, KindGUID, KindGlobalID, KindRaster:
		return false
	}
	return false
}

var kindsByTypeName = map[string]FieldKind{
	"text":              KindString,
	"varchar":           KindString,
	"char":              KindString,
	"character":         KindString,
	"character varying": KindString,
	"nvarchar":          KindString,
	"nchar":             KindString,
	"clob":              KindString,
	"string":            KindString,
	"tinytext":          KindString,
	"mediumtext":        KindString,
	"longtext":          KindString,
	"enum":              KindString,
	"set":               KindString,

	"smallint": KindSmallInteger,
	"tinyint":  KindSmallInteger,
	"int2":     KindSmallInteger,
	"bool":     KindSmallInteger,
	"boolean":  KindSmallInteger,

	"int":       KindInteger,
	"integer":   KindInteger,
	"int4":      KindInteger,
	"bigint":    KindInteger,
	"int8":      KindInteger,
	"mediumint": KindInteger,

	"serial":      KindOID,
	"bigserial":   KindOID,
	"smallserial": KindOID,
	"oid":         KindOID,
	"objectid":    KindOID,

	"real":             KindSingle,
	"float4":           KindSingle,
	"float":            KindSingle,
	"double":           KindDouble,
	"double precision": KindDouble,
	"float8":           KindDouble,
	"numeric":          KindDouble,
	"decimal":          KindDouble,
	"number":           KindDouble,

	"date":                        KindDate,
	"datetime":                    KindDate,
	"timestamp":                   KindDate,
	"timestamptz":                 KindDate,
	"timestamp without time zone": KindDate,
	"timestamp with time zone":    KindDate,
	"time":                        KindDate,
	"timetz":                      KindDate,
	"time without time zone":      KindDate,
	"time with time zone":         KindDate,
	"year":                        KindDate,

	"blob":       KindBlob,
	"bytea":      KindBlob,
	"binary":     KindBlob,
	"varbinary":  KindBlob,
	"tinyblob":   KindBlob,
	"mediumblob": KindBlob,
	"longblob":   KindBlob,

	"uuid":             KindGUID,
	"uniqueidentifier": KindGUID,
	"guid":             KindGUID,
	"globalid":         KindGlobalID,
	"raster":           KindRaster,

	"geometry":           KindGeometry,
	"geography":          KindGeometry,
	"point":              KindGeometry,
	"linestring":         KindGeometry,
	"polygon":            KindGeometry,
	"multipoint":         KindGeometry,
	"multilinestring":    KindGeometry,
	"multipolygon":       KindGeometry,
	"geometrycollection": KindGeometry,
}

// baseTypeName lowercases a declared type and strips length/precision modifiers
// and MySQL's unsigned/zerofill suffixes: "VARCHAR(20)" -> "varchar".
func baseTypeName(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i != -1 {
		rest := ""
		if j := strings.IndexByte(t[i:], ')'); j != -1 {
			rest = t[i+j+1:]
		}
		t = strings.TrimSpace(t[:i] + rest)
	}
	t = strings.TrimSuffix(t, " zerofill")
	t = strings.TrimSuffix(t, " unsigned")
	return strings.Join(strings.Fields(t), " ")
}

// KindOf maps a declared column type to a FieldKind.
// SQLite columns without a known type name fall back to SQLite's type affinity rules,
// other databases fall back to String (enums, json, inet and the like).
func KindOf(dbType DatabaseType, declared string) FieldKind {
	t := baseTypeName(declared)
	if dbType == SQLite && (t == "real" || t == "float") {
		// 8-byte IEEE in SQLite
		return KindDouble
	}
	if kind, ok := kindsByTypeName[t]; ok {
		return kind
	}
	if dbType != SQLite {
		return KindString
	}
	switch {
	case strings.Contains(t, "int"):
		return KindInteger
	case strings.Contains(t, "char"), strings.Contains(t, "clob"), strings.Contains(t, "text"):
		return KindString
	case t == "", strings.Contains(t, "blob"):
		return KindBlob
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"):
		return KindDouble
	default:
		return KindDouble
	}
}
