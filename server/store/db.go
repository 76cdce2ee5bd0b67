package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DatabaseConfig selects and sizes the database holding projects and connections.
type DatabaseConfig struct {
	ConnectionString   DatabaseConnectionString
	Driver             DBDriver
	MaxIdleConnections int
	MaxOpenConnections int
}

// DBDriver is a database/sql driver name. Only Sqlite and Postgres are supported.
type DBDriver string

func (d DBDriver) String() string {
	return string(d)
}

type DatabaseConnectionString string

func (d DatabaseConnectionString) String() string {
	return string(d)
}

const (
	Sqlite   DBDriver = "sqlite3"
	Postgres DBDriver = "postgres"

	DefaultDatabaseMaxIdleConnections = 2
	DefaultDatabaseMaxOpenConnections = 4
)

// DB is a connection pool plus the locking sqlite needs. Sqlite allows a single writer, so
// writes and transactions against it are serialized here rather than surfacing SQLITE_BUSY.
type DB struct {
	*sqlx.DB
	Driver           DBDriver
	ConnectionString DatabaseConnectionString
	lock             sync.RWMutex
}

// Tx is an open transaction, passed as txOrNil to store methods so they join it.
type Tx struct {
	tx *sqlx.Tx
}

// MigrationRunner applies schema migrations to a database identified by driver and connection string.
type MigrationRunner interface {
	// Up migrates to the latest version.
	Up(ctx context.Context, driver DBDriver, connectionString DatabaseConnectionString) error
	// Down reverts every migration.
	Down(ctx context.Context, driver DBDriver, connectionString DatabaseConnectionString) error
	// Goto migrates up or down to version.
	Goto(ctx context.Context, driver DBDriver, connectionString DatabaseConnectionString, version uint) error
	// Force records version as applied and clean without running anything.
	Force(ctx context.Context, driver DBDriver, connectionString DatabaseConnectionString, version uint) error
}

// NewDatabase opens and pings a connection pool for config, running migrationRunner.Up first if it
// is non-nil. The returned cleanup function closes the pool.
func NewDatabase(ctx context.Context, config DatabaseConfig, migrationRunner MigrationRunner) (*DB, func(), error) {
	switch config.Driver {
	case Sqlite:
		if err := ensureSQLiteFile(config.ConnectionString.String()); err != nil {
			return nil, nil, err
		}
	case Postgres:
	default:
		return nil, nil, fmt.Errorf("error unsupported database driver %q", config.Driver)
	}

	pool, err := sqlx.Open(config.Driver.String(), config.ConnectionString.String())
	if err != nil {
		return nil, nil, fmt.Errorf("error opening %s database: %w", config.Driver, err)
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, nil, MakeStandardDBError(fmt.Errorf("error pinging %s database: %w", config.Driver, err))
	}
	if migrationRunner != nil {
		if err := migrationRunner.Up(ctx, config.Driver, config.ConnectionString); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("error migrating %s database: %w", config.Driver, err)
		}
	}
	pool.SetMaxIdleConns(config.MaxIdleConnections)
	pool.SetMaxOpenConns(config.MaxOpenConnections)

	db := &DB{DB: pool, Driver: config.Driver, ConnectionString: config.ConnectionString}
	return db, func() { db.Close() }, nil
}

// sqliteFilePath extracts the database file from a "file:<path>?<params>" sqlite connection string.
// ok is false for in-memory databases and for strings that do not name a file.
func sqliteFilePath(connectionString string) (path string, ok bool) {
	// In-memory strings can carry a file: prefix too, see mattn/go-sqlite3#677
	if strings.Contains(connectionString, ":memory:") || strings.Contains(connectionString, "mode=memory") {
		return "", false
	}
	_, rest, found := strings.Cut(connectionString, "file:")
	if !found {
		return "", false
	}
	path, _, _ = strings.Cut(rest, "?")
	return path, path != ""
}

// ensureSQLiteFile creates the database file and its directory if the connection string names one,
// so a fresh install can start without any setup.
func ensureSQLiteFile(connectionString string) error {
	path, ok := sqliteFilePath(connectionString)
	if !ok {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating database directory %q: %w", dir, err)
	}
	file, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0660)
	if err != nil {
		return fmt.Errorf("error creating database file %q: %w", path, err)
	}
	return file.Close()
}

// WithTx runs fn in a transaction that is committed if fn returns nil and rolled back otherwise,
// including when ctx is cancelled first. If txOrNil is set fn simply joins that transaction.
func (d *DB) WithTx(ctx context.Context, txOrNil *Tx, fn func(tx *Tx) error) error {
	if txOrNil != nil {
		return fn(txOrNil)
	}
	if d.Driver == Sqlite {
		d.lock.Lock()
		defer d.lock.Unlock()
	}

	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(MakeStandardDBError(err), "error beginning transaction")
	}
	if err := fn(&Tx{tx}); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrapf(rollbackErr, "error rolling back transaction after: %s", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(MakeStandardDBError(err), "error committing transaction")
	}
	return nil
}

// Close closes the pool. The DB must not be used afterwards.
func (d *DB) Close() error {
	return d.DB.Close()
}

// Write calls fn with a goqu handle bound to txOrNil, or to the database itself when no transaction is
// supplied. Sqlite writes outside a transaction are serialized.
func (d *DB) Write(txOrNil *Tx, fn func(Writer) error) error {
	if txOrNil != nil {
		return fn(goqu.NewTx(d.DriverName(), txOrNil.tx))
	}
	if d.Driver == Sqlite {
		d.lock.Lock()
		defer d.lock.Unlock()
	}
	return fn(goqu.New(d.DriverName(), d.DB))
}

// Read is the read-only counterpart of Write.
func (d *DB) Read(txOrNil *Tx, fn func(Reader) error) error {
	if txOrNil != nil {
		return fn(goqu.NewTx(d.DriverName(), txOrNil.tx))
	}
	if d.Driver == Sqlite {
		d.lock.RLock()
		defer d.lock.RUnlock()
	}
	return fn(goqu.New(d.DriverName(), d.DB))
}

type Writer interface {
	Reader
	Update(table interface{}) *goqu.UpdateDataset
	Insert(table interface{}) *goqu.InsertDataset
	Delete(table interface{}) *goqu.DeleteDataset
	Truncate(table ...interface{}) *goqu.TruncateDataset
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Reader interface {
	From(from ...interface{}) *goqu.SelectDataset
	Select(cols ...interface{}) *goqu.SelectDataset
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ScanStructsContext(ctx context.Context, i interface{}, query string, args ...interface{}) error
	ScanStructContext(ctx context.Context, i interface{}, query string, args ...interface{}) (bool, error)
	ScanValsContext(ctx context.Context, i interface{}, query string, args ...interface{}) error
	ScanValContext(ctx context.Context, i interface{}, query string, args ...interface{}) (bool, error)
}
