package sqlstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect selects SQL flavour, driver and migration set.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// ParseDialect accepts "postgres"/"pgx" and "sqlite"/"sqlite3".
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unknown sql dialect %q", name)
	}
}

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

func (d Dialect) driverName() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

func (d Dialect) gooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

func (d Dialect) migrationsDir() string {
	return "migrations/" + d.String()
}

var placeholder = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders for SQLite. Queries must number
// placeholders in argument order.
func (d Dialect) rebind(query string) string {
	if d != SQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}
