package migrations

import (
	"fmt"

	"github.com/buildbeaver/connections/server/store"
)

// DialectTemplate is the data migration SQL templates are executed with. Each field is the
// column type or clause spelled the way the target database expects.
type DialectTemplate struct {
	// Binary holds encrypted connection values and data keys.
	Binary string
	// IntegerPrimaryKey is an auto-incrementing integer key column.
	IntegerPrimaryKey string
}

var dialects = map[store.DBDriver]DialectTemplate{
	store.Postgres: {Binary: "BYTEA", IntegerPrimaryKey: "SERIAL PRIMARY KEY"},
	store.Sqlite:   {Binary: "BLOB", IntegerPrimaryKey: "integer NOT NULL PRIMARY KEY AUTOINCREMENT"},
}

func NewPostgresDialectTemplate() *DialectTemplate {
	return mustDialect(store.Postgres)
}

func NewSqliteDialectTemplate() *DialectTemplate {
	return mustDialect(store.Sqlite)
}

// GetDialectForDriver returns the template data for driver, or an error if migrations do not
// support it.
func GetDialectForDriver(driver store.DBDriver) (*DialectTemplate, error) {
	dialect, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("error unsupported database driver: %s", driver)
	}
	return &dialect, nil
}

func mustDialect(driver store.DBDriver) *DialectTemplate {
	dialect, err := GetDialectForDriver(driver)
	if err != nil {
		panic(err)
	}
	return dialect
}
