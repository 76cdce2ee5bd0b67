package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/store"
	"github.com/buildbeaver/connections/server/store/migrations"
)

const (
	testDBDriverEnvVar         = "TEST_DB_DRIVER"
	testConnectionStringEnvVar = "TEST_CONNECTION_STRING"

	defaultTestConnectionString = store.DatabaseConnectionString("file::memory:?cache=shared&_foreign_keys=1&parseTime=true")
)

// Connect opens a migrated test database. See ConnectAndOptionallyMigrate.
func Connect(logFactory logger.LogFactory) (*store.DB, func(), error) {
	return ConnectAndOptionallyMigrate(true, logFactory)
}

// ConnectAndOptionallyMigrate opens a test database, running the server migrations first if
// runMigrations is true. In-memory sqlite is used unless TEST_DB_DRIVER (and, for anything but
// sqlite, TEST_CONNECTION_STRING) select another database. Postgres tests get a throwaway database
// that cleanup drops.
func ConnectAndOptionallyMigrate(runMigrations bool, logFactory logger.LogFactory) (*store.DB, func(), error) {
	log := logFactory("TestDB")
	driver, connectionString, err := testDatabaseFromEnv()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	cleanup := func() {
		log.Info("Running cleanup")
		for i := len(cleanupFns) - 1; i >= 0; i-- {
			cleanupFns[i]()
		}
	}

	if driver == store.Postgres {
		dropDatabase, err := createTestDatabase(log, driver, &connectionString)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing test database: %w", err)
		}
		cleanupFns = append(cleanupFns, dropDatabase)
	}

	var migrationRunner store.MigrationRunner
	if runMigrations {
		migrationRunner = migrations.NewConnectionsGolangMigrateRunner(logFactory)
	}
	db, closeDB, err := store.NewDatabase(context.Background(), store.DatabaseConfig{
		ConnectionString:   connectionString,
		Driver:             driver,
		MaxIdleConnections: store.DefaultDatabaseMaxIdleConnections,
		MaxOpenConnections: store.DefaultDatabaseMaxOpenConnections,
	}, migrationRunner)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error creating database: %w", err)
	}
	cleanupFns = append(cleanupFns, closeDB)
	return db, cleanup, nil
}

func testDatabaseFromEnv() (store.DBDriver, store.DatabaseConnectionString, error) {
	driverStr, haveDriver := os.LookupEnv(testDBDriverEnvVar)
	connectionStr, haveConnection := os.LookupEnv(testConnectionStringEnvVar)
	switch {
	case !haveDriver && haveConnection:
		return "", "", fmt.Errorf("error %s must be set when using %s", testDBDriverEnvVar, testConnectionStringEnvVar)
	case !haveDriver:
		return store.Sqlite, defaultTestConnectionString, nil
	}
	driver := store.DBDriver(driverStr)
	if connectionStr == "" {
		if driver != store.Sqlite {
			return "", "", fmt.Errorf("error %s must be set alongside %s when not using sqlite",
				testConnectionStringEnvVar, testDBDriverEnvVar)
		}
		return driver, defaultTestConnectionString, nil
	}
	return driver, store.DatabaseConnectionString(connectionStr), nil
}

// createTestDatabase creates a uniquely named database on the server connectionString points at
// and rewrites connectionString to use it. A connection string that already names a database is
// used unchanged and nothing is dropped on cleanup.
func createTestDatabase(log logger.Log, driver store.DBDriver, connectionString *store.DatabaseConnectionString) (func(), error) {
	parsed, err := url.Parse(connectionString.String())
	if err != nil {
		return nil, fmt.Errorf("error parsing connection string: %w", err)
	}
	if strings.Trim(parsed.Path, "/") != "" {
		return func() {}, nil
	}
	admin, err := sql.Open(driver.String(), parsed.String())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database server: %w", err)
	}
	name := "testdb_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	log.Infof("Creating test database %s", name)
	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		admin.Close()
		return nil, fmt.Errorf("error creating database %s: %w", name, err)
	}
	parsed.Path = name
	*connectionString = store.DatabaseConnectionString(parsed.String())
	return func() {
		log.Infof("Dropping test database %s", name)
		if _, err := admin.Exec("DROP DATABASE " + name); err != nil {
			log.Errorf("Failed to drop test database %s: %v", name, err)
		}
		admin.Close()
	}, nil
}
