package migrations

// MigrationSet provides a set of migrations that can be applied to a database.
type MigrationSet []MigrationData

// MigrationData provides the data for a single migration, including Up and Down SQL.
// Templated values are supported and will be substituted for database-specific values
// before the migrations are applied.
type MigrationData struct {
	SequenceNumber int64
	Name           string
	UpSQL          string
	DownSQL        string
}

// ConnectionsServerMigrations is the set of migrations to set up the database for the connections server.
var ConnectionsServerMigrations = MigrationSet{
	{
		SequenceNumber: 1,
		Name:           "create_projects",
		UpSQL: `CREATE TABLE IF NOT EXISTS projects
				(
					project_id text NOT NULL PRIMARY KEY,
					project_platform_id text NOT NULL,
					project_created_at timestamp without time zone NOT NULL,
					project_updated_at timestamp without time zone NOT NULL,
					project_etag text NOT NULL,
					project_external_id text NOT NULL,
					project_display_name text NOT NULL,
					project_metadata text NOT NULL
				);
				CREATE UNIQUE INDEX IF NOT EXISTS projects_platform_external_id_unique_index ON projects(
					project_platform_id,
					project_external_id);
				CREATE UNIQUE INDEX IF NOT EXISTS projects_created_at_id_desc_unique_index ON projects(
					project_created_at DESC,
					project_id DESC);`,
		DownSQL: `DROP INDEX projects_created_at_id_desc_unique_index;
				  DROP INDEX projects_platform_external_id_unique_index;
				  DROP TABLE projects;`,
	},
	{
		SequenceNumber: 2,
		Name:           "create_connections",
		UpSQL: `CREATE TABLE IF NOT EXISTS connections
				(
					connection_id text NOT NULL PRIMARY KEY,
					connection_platform_id text NOT NULL,
					connection_created_at timestamp without time zone NOT NULL,
					connection_updated_at timestamp without time zone NOT NULL,
					connection_etag text NOT NULL,
					connection_external_id text NOT NULL,
					connection_display_name text NOT NULL,
					connection_piece_name text NOT NULL,
					connection_auth_type text NOT NULL,
					connection_scope text NOT NULL,
					connection_value_encrypted {{.Binary}} NOT NULL,
					connection_data_key_encrypted {{.Binary}} NOT NULL,
					connection_value_schema_version integer NOT NULL
				);
				CREATE UNIQUE INDEX IF NOT EXISTS connections_platform_external_id_unique_index ON connections(
					connection_platform_id,
					connection_external_id);
				CREATE UNIQUE INDEX IF NOT EXISTS connections_created_at_id_desc_unique_index ON connections(
					connection_created_at DESC,
					connection_id DESC);`,
		DownSQL: `DROP INDEX connections_created_at_id_desc_unique_index;
				  DROP INDEX connections_platform_external_id_unique_index;
				  DROP TABLE connections;`,
	},
	{
		SequenceNumber: 3,
		Name:           "create_connection_projects",
		UpSQL: `CREATE TABLE IF NOT EXISTS connection_projects
				(
					connection_project_connection_id text NOT NULL REFERENCES connections (connection_id) ON UPDATE NO ACTION ON DELETE CASCADE,
					connection_project_project_id text NOT NULL REFERENCES projects (project_id) ON UPDATE NO ACTION ON DELETE NO ACTION,
					connection_project_created_at timestamp without time zone NOT NULL,
					PRIMARY KEY (connection_project_connection_id, connection_project_project_id)
				);
				CREATE INDEX IF NOT EXISTS connection_projects_project_id_index ON connection_projects(
					connection_project_project_id);`,
		DownSQL: `DROP INDEX connection_projects_project_id_index;
				  DROP TABLE connection_projects;`,
	},
}
