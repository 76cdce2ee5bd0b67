package migrate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/buildbeaver/connections/server/cmd/conn-tools/cli"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/commands"
	"github.com/buildbeaver/connections/server/store"
	"github.com/buildbeaver/connections/server/store/migrations"
)

const defaultSQLiteConnectionString = "file:/var/lib/connections/db/sqlite.db?cache=shared"

const (
	driverKey           = "database-driver"
	connectionStringKey = "database-connection-string"
)

func init() {
	migrateRootCmd.PersistentFlags().String(
		"driver",
		string(store.Sqlite),
		"The Database Driver to use for migration (i.e sqlite3|postgres)")
	migrateRootCmd.PersistentFlags().String(
		"connection",
		defaultSQLiteConnectionString,
		"The connection string for the database to use for migration")
	migrateRootCmd.PersistentFlags().BoolVarP(
		&migrateCmdConfig.skipConfirmation,
		"skip-confirmation",
		"",
		false,
		"Skip interactive confirmation and automatically answer Yes to confirmation questions")
	mustBind(driverKey, "driver")
	mustBind(connectionStringKey, "connection")

	commands.RootCmd.AddCommand(migrateRootCmd)
	migrateRootCmd.AddCommand(migrateUpCmd)
	migrateRootCmd.AddCommand(migrateDownCmd)
	migrateRootCmd.AddCommand(migrateGotoCmd)
	migrateRootCmd.AddCommand(migrateForceCmd)
	migrateRootCmd.AddCommand(migrateVersionCmd)
}

func mustBind(key string, flag string) {
	err := viper.BindPFlag(key, migrateRootCmd.PersistentFlags().Lookup(flag))
	if err != nil {
		panic(err)
	}
}

var migrateCmdConfig = struct {
	skipConfirmation bool
	migrationRunner  *migrations.GolangMigrateRunner
}{}

func driver() store.DBDriver {
	return store.DBDriver(viper.GetString(driverKey))
}

func connectionString() store.DatabaseConnectionString {
	return store.DatabaseConnectionString(viper.GetString(connectionStringKey))
}

var migrateRootCmd = &cobra.Command{
	Use:   "migrate up|down|goto|force|version",
	Short: "Migrates the database up to the latest version, down to empty, or to a specific version number",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// migration runner needs a log factory; use a very plain log format
		logFactory, err := commands.MakeLogFactory()
		if err != nil {
			return err
		}
		migrateCmdConfig.migrationRunner = migrations.NewConnectionsGolangMigrateRunner(logFactory)
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:           "up",
	Short:         "Migrates the database up to the latest version",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := migrateCmdConfig.migrationRunner.Up(context.Background(), driver(), connectionString())
		if err != nil {
			return fmt.Errorf("error running 'up' migration: %w", err)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:           "down",
	Short:         "Migrates the database down to being empty",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed := cli.AskForConfirmation("Running a Down migration will remove ALL projects and connections from this database. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Down migration cancelled.")
			return nil
		}
		err := migrateCmdConfig.migrationRunner.Down(context.Background(), driver(), connectionString())
		if err != nil {
			return fmt.Errorf("error running 'down' migration: %w", err)
		}
		return nil
	},
}

var migrateGotoCmd = &cobra.Command{
	Use:           "goto V",
	Short:         "Migrates the database up or down as required to be at specific version V",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		confirmed := cli.AskForConfirmation("Running a Goto migration will sometimes REMOVE data from this database. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Goto migration cancelled.")
			return nil
		}
		err = migrateCmdConfig.migrationRunner.Goto(context.Background(), driver(), connectionString(), version)
		if err != nil {
			return fmt.Errorf("error running 'goto' migration: %w", err)
		}
		return nil
	},
}

var migrateForceCmd = &cobra.Command{
	Use:           "force V",
	Short:         "Marks the database as being clean and in version V, but don't run migrations",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		confirmed := cli.AskForConfirmation("Running a Force migration should only be performed after the database has been manually checked and fixed. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Force migration cancelled.")
			return nil
		}
		err = migrateCmdConfig.migrationRunner.Force(context.Background(), driver(), connectionString(), version)
		if err != nil {
			return fmt.Errorf("error running 'force' operation: %w", err)
		}
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:           "version",
	Short:         "Prints the version the database is migrated to, and the latest available version",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, dirty, err := migrateCmdConfig.migrationRunner.Version(context.Background(), driver(), connectionString())
		if err != nil {
			return fmt.Errorf("error reading migration version: %w", err)
		}
		cli.Stdout.Printf("Current version: %d (dirty: %t)", version, dirty)
		cli.Stdout.Printf("Latest version: %d", migrateCmdConfig.migrationRunner.Latest())
		return nil
	},
}

func parseVersion(str string) (uint, error) {
	version, err := strconv.Atoi(str)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("error: version must be a valid number")
	}
	return uint(version), nil
}
