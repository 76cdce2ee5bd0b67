package migrations_test

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/store"
	"github.com/buildbeaver/connections/server/store/migrations"
	"github.com/buildbeaver/connections/server/store/store_test"
)

var migrationTestData = migrations.MigrationSet{
	{
		SequenceNumber: 1,
		Name:           "create_test_tenants",
		UpSQL: `CREATE TABLE IF NOT EXISTS test_tenants
				(
					tenant_id text NOT NULL PRIMARY KEY,
					tenant_external_id text NOT NULL,
					tenant_created_at timestamp without time zone NOT NULL,
					tenant_logo {{ .Binary}}
				);
				CREATE UNIQUE INDEX IF NOT EXISTS test_tenants_external_id_unique_index ON test_tenants(tenant_external_id);`,
		DownSQL: `DROP TABLE test_tenants;`,
	},
	{
		SequenceNumber: 2,
		Name:           "create_test_credentials",
		UpSQL: `CREATE TABLE test_credentials
				(
				   credential_id {{ .IntegerPrimaryKey}},
				   credential_tenant_id text NOT NULL REFERENCES test_tenants (tenant_id) ON UPDATE NO ACTION ON DELETE CASCADE,
				   credential_value_encrypted {{ .Binary}} NOT NULL
				);`,
		DownSQL: `DROP TABLE test_credentials;`,
	},
	{
		SequenceNumber: 3,
		Name:           "alter_test_credentials",
		UpSQL:          `ALTER TABLE test_credentials ADD credential_schema_version integer;`,
		DownSQL:        `ALTER TABLE test_credentials DROP COLUMN credential_schema_version;`,
	},
}

func makeLogFactory(t *testing.T) logger.LogFactory {
	logRegistry, err := logger.NewLogRegistry("")
	require.NoError(t, err)
	return logger.MakeLogrusLogFactoryStdOut(logRegistry)
}

func TestMigrations(t *testing.T) {
	logFactory := makeLogFactory(t)

	// The runner closes its connection after every operation, so the database must outlive it
	sqliteFile := filepath.Join(t.TempDir(), "migrations.db")
	sqliteConnectionString := store.DatabaseConnectionString("file:" + sqliteFile + "?_foreign_keys=1&parseTime=true")
	t.Run("sqlite-file", testMigrationsForDB(store.Sqlite, sqliteConnectionString, logFactory))

	// The default test database is configured via environment variables and could be any database
	database, cleanup, err := store_test.ConnectAndOptionallyMigrate(false, logFactory)
	require.NoError(t, err)
	defer cleanup()
	t.Run("default-test-database", testMigrationsForDB(database.Driver, database.ConnectionString, logFactory))
}

type migrationStep struct {
	name string
	run  func(ctx context.Context, runner *migrations.GolangMigrateRunner, driver store.DBDriver, conn store.DatabaseConnectionString) error
	// expectError is checked if non-nil; otherwise the step must succeed.
	expectError *bool
	// expectVersion is checked after the step if non-nil.
	expectVersion *uint
}

func up(ctx context.Context, r *migrations.GolangMigrateRunner, d store.DBDriver, c store.DatabaseConnectionString) error {
	return r.Up(ctx, d, c)
}

func down(ctx context.Context, r *migrations.GolangMigrateRunner, d store.DBDriver, c store.DatabaseConnectionString) error {
	return r.Down(ctx, d, c)
}

func gotoVersion(v uint) func(context.Context, *migrations.GolangMigrateRunner, store.DBDriver, store.DatabaseConnectionString) error {
	return func(ctx context.Context, r *migrations.GolangMigrateRunner, d store.DBDriver, c store.DatabaseConnectionString) error {
		return r.Goto(ctx, d, c, v)
	}
}

func force(v uint) func(context.Context, *migrations.GolangMigrateRunner, store.DBDriver, store.DatabaseConnectionString) error {
	return func(ctx context.Context, r *migrations.GolangMigrateRunner, d store.DBDriver, c store.DatabaseConnectionString) error {
		return r.Force(ctx, d, c, v)
	}
}

func boolPtr(b bool) *bool { return &b }
func uintPtr(v uint) *uint { return &v }

// testMigrationsForDB walks migrationTestData up, down, to specific versions and through a forced
// (incorrect) version against the database with the specified driver and connection string.
func testMigrationsForDB(
	driver store.DBDriver,
	connectionString store.DatabaseConnectionString,
	logFactory logger.LogFactory,
) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		runner := migrations.NewGolangMigrateRunner(migrationTestData, logFactory)

		steps := []migrationStep{
			{name: "up", run: up, expectVersion: uintPtr(3)},
			{name: "up again is a no-op", run: up, expectVersion: uintPtr(3)},
			{name: "down", run: down, expectVersion: uintPtr(0)},
			{name: "up after down", run: up},
			{name: "goto 2", run: gotoVersion(2), expectVersion: uintPtr(2)},
			{name: "goto 1", run: gotoVersion(1), expectVersion: uintPtr(1)},
			// The database is really at 1, so the down migrations for 3 and 2 reference missing objects
			{name: "force 3", run: force(3), expectVersion: uintPtr(3)},
			{name: "down after bad force", run: down, expectError: boolPtr(true)},
			{name: "force 1", run: force(1), expectVersion: uintPtr(1)},
			{name: "down after fix", run: down},
			{name: "up to latest", run: up, expectVersion: uintPtr(runner.Latest())},
			// Leave the database empty for the next database under test
			{name: "cleanup", run: down},
		}
		for _, step := range steps {
			t.Logf("Migration step: %s", step.name)
			err := step.run(ctx, runner, driver, connectionString)
			if step.expectError != nil && *step.expectError {
				require.Error(t, err, step.name)
			} else {
				require.NoError(t, err, step.name)
			}
			if step.expectVersion != nil {
				version, dirty, err := runner.Version(ctx, driver, connectionString)
				require.NoError(t, err)
				require.False(t, dirty, step.name)
				require.Equal(t, *step.expectVersion, version, step.name)
			}
		}
	}
}

func TestMigrationTemplating(t *testing.T) {
	t.Run("Sqlite", testMigrationTemplating(migrations.NewSqliteDialectTemplate(), "BLOB"))
	t.Run("Postgres", testMigrationTemplating(migrations.NewPostgresDialectTemplate(), "BYTEA"))
}

func testMigrationTemplating(dialectTemplate *migrations.DialectTemplate, binaryType string) func(t *testing.T) {
	return func(t *testing.T) {
		runner := migrations.NewConnectionsGolangMigrateRunner(makeLogFactory(t))

		inMemoryFS, err := runner.ProduceMigrationFiles(dialectTemplate)
		require.NoError(t, err)

		var files []string
		err = fs.WalkDir(inMemoryFS, "migrations", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		require.NoError(t, err)
		require.Len(t, files, 2*len(migrations.ConnectionsServerMigrations))

		// Every template placeholder must have been substituted
		sawBinary := false
		for _, file := range files {
			data, err := fs.ReadFile(inMemoryFS, file)
			require.NoError(t, err)
			require.NotContains(t, string(data), "{{", file)
			if strings.Contains(string(data), binaryType) {
				sawBinary = true
			}
		}
		require.True(t, sawBinary, "expected the connections table to use %s for encrypted values", binaryType)
	}
}

// TestServerMigrations runs the connections server migrations down and up again against the default test
// database, as configured by environment variables.
func TestServerMigrations(t *testing.T) {
	logFactory := makeLogFactory(t)
	ctx := context.Background()

	database, cleanup, err := store_test.ConnectAndOptionallyMigrate(true, logFactory)
	require.NoError(t, err)
	defer cleanup()

	runner := migrations.NewConnectionsGolangMigrateRunner(logFactory)

	err = runner.Up(ctx, database.Driver, database.ConnectionString)
	require.NoError(t, err)

	err = runner.Down(ctx, database.Driver, database.ConnectionString)
	require.NoError(t, err)
	version, dirty, err := runner.Version(ctx, database.Driver, database.ConnectionString)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(0), version)

	err = runner.Up(ctx, database.Driver, database.ConnectionString)
	require.NoError(t, err)
	version, dirty, err = runner.Version(ctx, database.Driver, database.ConnectionString)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, runner.Latest(), version)
}

func TestGetDialectForDriver(t *testing.T) {
	dialect, err := migrations.GetDialectForDriver(store.Postgres)
	require.NoError(t, err)
	require.Equal(t, "BYTEA", dialect.Binary)

	// Callers get their own copy
	dialect.Binary = "changed"
	require.Equal(t, "BYTEA", migrations.NewPostgresDialectTemplate().Binary)

	_, err = migrations.GetDialectForDriver("mysql")
	require.Error(t, err)
}

func TestProduceMigrationFilesRejectsDuplicateSequenceNumbers(t *testing.T) {
	runner := migrations.NewGolangMigrateRunner(migrations.MigrationSet{
		{SequenceNumber: 1, Name: "first", UpSQL: "SELECT 1;", DownSQL: "SELECT 1;"},
		{SequenceNumber: 1, Name: "second", UpSQL: "SELECT 2;", DownSQL: "SELECT 2;"},
	}, makeLogFactory(t))
	_, err := runner.ProduceMigrationFiles(migrations.NewSqliteDialectTemplate())
	require.Error(t, err)
	require.Contains(t, err.Error(), "share sequence number 1")
}

func TestProduceMigrationFilesRejectsUnknownPlaceholders(t *testing.T) {
	runner := migrations.NewGolangMigrateRunner(migrations.MigrationSet{
		{SequenceNumber: 1, Name: "bad", UpSQL: "CREATE TABLE t (c {{ .Uuid }});", DownSQL: "DROP TABLE t;"},
	}, makeLogFactory(t))
	_, err := runner.ProduceMigrationFiles(migrations.NewSqliteDialectTemplate())
	require.Error(t, err)
}
