package migrations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"text/template"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migrate_database "github.com/golang-migrate/migrate/v4/database"
	migrate_postgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migrate_sqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	migrate_iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/psanford/memfs"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/store"
)

const migrationsDir = "migrations"

// GolangMigrateRunner applies a MigrationSet with golang-migrate. The set is rendered for the target
// database's dialect into an in-memory filesystem on every call, so nothing is read from disk.
type GolangMigrateRunner struct {
	logger.Log
	migrationData MigrationSet
}

func NewGolangMigrateRunner(migrationData MigrationSet, logFactory logger.LogFactory) *GolangMigrateRunner {
	return &GolangMigrateRunner{
		Log:           logFactory("GolangMigrateRunner"),
		migrationData: migrationData,
	}
}

// NewConnectionsGolangMigrateRunner returns a runner for the connections server schema.
func NewConnectionsGolangMigrateRunner(logFactory logger.LogFactory) *GolangMigrateRunner {
	return NewGolangMigrateRunner(ConnectionsServerMigrations, logFactory)
}

func (r *GolangMigrateRunner) Up(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString) error {
	r.Infof("Migrating %s database up to version %d", driver, r.Latest())
	return r.withMigrator(ctx, driver, connectionString, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

func (r *GolangMigrateRunner) Down(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString) error {
	r.Infof("Migrating %s database down to empty", driver)
	return r.withMigrator(ctx, driver, connectionString, func(m *migrate.Migrate) error {
		return m.Down()
	})
}

func (r *GolangMigrateRunner) Goto(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString, version uint) error {
	r.Infof("Migrating %s database to version %d", driver, version)
	return r.withMigrator(ctx, driver, connectionString, func(m *migrate.Migrate) error {
		return m.Migrate(version)
	})
}

func (r *GolangMigrateRunner) Force(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString, version uint) error {
	r.Warnf("Forcing %s database version to %d without running migrations", driver, version)
	return r.withMigrator(ctx, driver, connectionString, func(m *migrate.Migrate) error {
		return m.Force(int(version))
	})
}

// Version reports the applied version, 0 for an unmigrated database, and whether a migration failed
// part way through. A dirty database must be forced to a known version before migrating again.
func (r *GolangMigrateRunner) Version(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString) (version uint, dirty bool, err error) {
	err = r.withMigrator(ctx, driver, connectionString, func(m *migrate.Migrate) error {
		var versionErr error
		version, dirty, versionErr = m.Version()
		if errors.Is(versionErr, migrate.ErrNilVersion) {
			version, dirty = 0, false
			return nil
		}
		return versionErr
	})
	return version, dirty, err
}

// Latest returns the highest sequence number in the runner's migration set.
func (r *GolangMigrateRunner) Latest() uint {
	var latest int64
	for _, m := range r.migrationData {
		if m.SequenceNumber > latest {
			latest = m.SequenceNumber
		}
	}
	return uint(latest)
}

// withMigrator opens a dedicated connection, wraps it in a golang-migrate instance and runs fn.
// ErrNoChange is not an error. golang-migrate takes no context so ctx is unused.
func (r *GolangMigrateRunner) withMigrator(
	_ context.Context,
	driver store.DBDriver,
	connectionString store.DatabaseConnectionString,
	fn func(*migrate.Migrate) error,
) error {
	dialect, err := GetDialectForDriver(driver)
	if err != nil {
		return err
	}
	files, err := r.ProduceMigrationFiles(dialect)
	if err != nil {
		return err
	}
	source, err := migrate_iofs.New(files, migrationsDir)
	if err != nil {
		return fmt.Errorf("error reading rendered migrations: %w", err)
	}

	db, err := sqlx.Open(driver.String(), connectionString.String())
	if err != nil {
		return fmt.Errorf("error opening %s database for migration: %w", driver, err)
	}
	target, err := newMigrateDatabaseDriver(driver, db)
	if err != nil {
		db.Close()
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, driver.String(), target)
	if err != nil {
		db.Close()
		return fmt.Errorf("error creating migrator: %w", err)
	}
	// Closes db as well
	defer m.Close()

	err = fn(m)
	if errors.Is(err, migrate.ErrNoChange) {
		r.Debugf("Database already at the requested version")
		return nil
	}
	return err
}

func newMigrateDatabaseDriver(driver store.DBDriver, db *sqlx.DB) (migrate_database.Driver, error) {
	var (
		target migrate_database.Driver
		err    error
	)
	switch driver {
	case store.Sqlite:
		target, err = migrate_sqlite3.WithInstance(db.DB, &migrate_sqlite3.Config{})
	case store.Postgres:
		target, err = migrate_postgres.WithInstance(db.DB, &migrate_postgres.Config{
			StatementTimeout:      5 * time.Second,
			MultiStatementEnabled: true, // several migrations create a table and its indexes together
			MultiStatementMaxSize: migrate_postgres.DefaultMultiStatementMaxSize,
		})
	default:
		return nil, fmt.Errorf("error unsupported migration database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating %s migration driver: %w", driver, err)
	}
	return target, nil
}

// ProduceMigrationFiles renders every migration for dialectTemplate into an in-memory filesystem,
// as migrations/<sequence>_<name>.<up|down>.sql files in the layout golang-migrate reads.
// Duplicate sequence numbers are rejected.
func (r *GolangMigrateRunner) ProduceMigrationFiles(dialectTemplate *DialectTemplate) (*memfs.FS, error) {
	files := memfs.New()
	if err := files.MkdirAll(migrationsDir, 0777); err != nil {
		return nil, err
	}
	seen := make(map[int64]string, len(r.migrationData))
	for _, m := range r.migrationData {
		if other, ok := seen[m.SequenceNumber]; ok {
			return nil, fmt.Errorf("error migrations %q and %q share sequence number %d", other, m.Name, m.SequenceNumber)
		}
		seen[m.SequenceNumber] = m.Name
		for direction, sql := range map[string]string{"up": m.UpSQL, "down": m.DownSQL} {
			if err := r.renderMigration(files, dialectTemplate, m, direction, sql); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

func (r *GolangMigrateRunner) renderMigration(files *memfs.FS, dialectTemplate *DialectTemplate, m MigrationData, direction string, sql string) error {
	name := path.Join(migrationsDir, fmt.Sprintf("%06d_%s.%s.sql", m.SequenceNumber, m.Name, direction))
	tmpl, err := template.New(name).Option("missingkey=error").Parse(sql)
	if err != nil {
		return fmt.Errorf("error parsing migration %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, dialectTemplate); err != nil {
		return fmt.Errorf("error rendering migration %s: %w", name, err)
	}
	if err := files.WriteFile(name, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing migration %s: %w", name, err)
	}
	r.Tracef("Rendered migration %s", name)
	return nil
}
