package storage

import (
	"fmt"
	"strings"

	"gorm.io/driver/clickhouse"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// dial opens a gorm.Dialector for databaseURL by inspecting its scheme.
// postgres is the spec's default backend (§6); sqlite (or a bare path,
// for tests and for backward compatibility with the teacher's -db flag
// style) needs no running server, so it is what every storage test in
// this repo dials against.
func dial(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	case strings.HasPrefix(databaseURL, "mysql://"):
		return mysql.Open(strings.TrimPrefix(databaseURL, "mysql://")), nil
	case strings.HasPrefix(databaseURL, "clickhouse://"):
		return clickhouse.Open(databaseURL), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://")), nil
	case strings.HasPrefix(databaseURL, "file:"):
		return sqlite.Open(databaseURL), nil
	case databaseURL == "":
		return nil, fmt.Errorf("storage: empty database_url")
	default:
		// Bare filesystem path: sqlite, matching the teacher's -db flag.
		return sqlite.Open(databaseURL), nil
	}
}
