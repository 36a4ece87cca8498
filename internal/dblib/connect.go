package dblib

import (
	"database/sql"
	"fmt"
	"os"
	"os/user"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ConnConfig describes one database connection.
type ConnConfig struct {
	Type     string // sqlite, postgres, mysql; detected from Database when empty
	Database string
	Host     string
	Port     string
	Username string
	Password string
}

func (c *ConnConfig) detectDatabaseType() (DatabaseType, error) {
	if c.Type != "" {
		return ParseDatabaseType(c.Type)
	}
	if strings.HasSuffix(c.Database, ".sqlite") || strings.HasSuffix(c.Database, ".db") ||
		strings.HasSuffix(c.Database, ".sqlite3") || strings.HasSuffix(c.Database, ".gpkg") {
		return SQLite, nil
	}
	return PostgreSQL, nil
}

func currentUsername() string {
	if currentUser, err := user.Current(); err == nil {
		return currentUser.Username
	}
	return ""
}

// pqValue quotes a key/value connection string value when it is empty or holds
// whitespace, quotes or backslashes.
func pqValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// BuildConnectionString returns the driver DSN for c and the detected database type.
func (c *ConnConfig) BuildConnectionString() (string, DatabaseType, error) {
	dbType, err := c.detectDatabaseType()
	if err != nil {
		return "", dbType, err
	}

	switch dbType {
	case SQLite:
		if _, err := os.Stat(c.Database); os.IsNotExist(err) {
			return "", dbType, fmt.Errorf("sqlite file does not exist: %s", c.Database)
		}
		return c.Database, dbType, nil

	case PostgreSQL:
		connStr := "dbname=" + pqValue(c.Database)

		if c.Host != "" {
			connStr += " host=" + pqValue(c.Host)
		}
		if c.Port != "" {
			connStr += " port=" + pqValue(c.Port)
		}
		if c.Username != "" {
			connStr += " user=" + pqValue(c.Username)
		} else if name := currentUsername(); name != "" {
			connStr += " user=" + pqValue(name)
		}
		if c.Password != "" {
			connStr += " password=" + pqValue(c.Password)
		}
		connStr += " sslmode=disable"

		return connStr, dbType, nil

	case MySQL:
		connStr := c.Username
		if connStr == "" {
			connStr = currentUsername()
		}
		if c.Password != "" {
			connStr += ":" + c.Password
		}
		connStr += "@"

		switch {
		case c.Host != "" && c.Port != "":
			connStr += fmt.Sprintf("tcp(%s:%s)", c.Host, c.Port)
		case c.Host != "":
			connStr += fmt.Sprintf("tcp(%s:3306)", c.Host)
		default:
			connStr += "tcp(localhost:3306)"
		}

		connStr += "/" + c.Database

		return connStr, dbType, nil

	default:
		return "", dbType, fmt.Errorf("unsupported database type")
	}
}

// Connect opens and pings the database described by c.
func Connect(c ConnConfig) (*sql.DB, DatabaseType, error) {
	connStr, dbType, err := c.BuildConnectionString()
	if err != nil {
		return nil, dbType, err
	}

	var driverName string
	switch dbType {
	case SQLite:
		driverName = "sqlite3"
	case PostgreSQL:
		driverName = "postgres"
	case MySQL:
		driverName = "mysql"
	default:
		return nil, dbType, fmt.Errorf("unsupported database type")
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, dbType, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, dbType, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, dbType, nil
}
