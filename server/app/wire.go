//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/wire"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/api/rest/routes"
	"github.com/buildbeaver/connections/server/api/rest/server"
	"github.com/buildbeaver/connections/server/services"
	"github.com/buildbeaver/connections/server/services/authentication"
	"github.com/buildbeaver/connections/server/services/connection"
	"github.com/buildbeaver/connections/server/services/credential"
	"github.com/buildbeaver/connections/server/services/encryption"
	"github.com/buildbeaver/connections/server/services/project"
	"github.com/buildbeaver/connections/server/store"
	"github.com/buildbeaver/connections/server/store/connections"
	"github.com/buildbeaver/connections/server/store/migrations"
	"github.com/buildbeaver/connections/server/store/projects"
)

func New(ctx context.Context, config *ServerConfig) (*Server, func(), error) {
	panic(wire.Build(
		NewServer,
		wire.FieldsOf(new(*ServerConfig), "CoreAPIConfig", "AuthenticationConfig", "DatabaseConfig", "LogLevels", "EncryptionConfig", "JWTConfig", "NamingConventionsConfig"),
		store.NewDatabase,
		migrations.NewConnectionsGolangMigrateRunner,
		wire.Bind(new(store.MigrationRunner), new(*migrations.GolangMigrateRunner)),

		// Stores
		projects.NewStore,
		wire.Bind(new(store.ProjectStore), new(*projects.ProjectStore)),
		connections.NewStore,
		wire.Bind(new(store.ConnectionStore), new(*connections.ConnectionStore)),

		// Services
		encryption.NewEncryptionService,
		wire.Bind(new(services.EncryptionService), new(*encryption.EncryptionService)),
		credential.NewCredentialService,
		wire.Bind(new(services.CredentialService), new(*credential.CredentialService)),
		authentication.NewAuthenticationService,
		wire.Bind(new(services.AuthenticationService), new(*authentication.AuthenticationService)),
		project.NewProjectService,
		wire.Bind(new(services.ProjectService), new(*project.ProjectService)),
		connection.NewConnectionService,
		wire.Bind(new(services.ConnectionService), new(*connection.ConnectionService)),

		KeyManagerFactory,
		NamingConventionsFactory,

		// APIs
		routes.NewResourceLinker,
		server.NewRootAPI,
		server.NewProjectAPI,
		server.NewConnectionAPI,
		server.NewRuntimeAPI,

		// HTTP Servers
		server.NewAppAPIServer,
		server.NewAppAPIRouter,
		server.RealHTTPServerFactory,

		logger.NewLogRegistry,
		logger.MakeLogrusLogFactoryStdOut,
		clock.New,
	))
}
