//go:build wireinject
// +build wireinject

package server_test

import (
	"github.com/benbjohnson/clock"
	"github.com/google/wire"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/api/rest/routes"
	rest_server "github.com/buildbeaver/connections/server/api/rest/server"
	"github.com/buildbeaver/connections/server/api/rest/server/servertest"
	"github.com/buildbeaver/connections/server/app"
	"github.com/buildbeaver/connections/server/services"
	"github.com/buildbeaver/connections/server/services/authentication"
	"github.com/buildbeaver/connections/server/services/connection"
	"github.com/buildbeaver/connections/server/services/credential"
	"github.com/buildbeaver/connections/server/services/encryption"
	"github.com/buildbeaver/connections/server/services/project"
	"github.com/buildbeaver/connections/server/store"
	"github.com/buildbeaver/connections/server/store/connections"
	"github.com/buildbeaver/connections/server/store/projects"
	"github.com/buildbeaver/connections/server/store/store_test"
)

func New(config *app.ServerConfig) (*TestServer, func(), error) {
	panic(wire.Build(
		NewTestServer,
		wire.FieldsOf(new(*app.ServerConfig), "CoreAPIConfig", "AuthenticationConfig", "LogLevels", "EncryptionConfig", "JWTConfig", "NamingConventionsConfig"),
		store_test.Connect,

		projects.NewStore,
		wire.Bind(new(store.ProjectStore), new(*projects.ProjectStore)),
		connections.NewStore,
		wire.Bind(new(store.ConnectionStore), new(*connections.ConnectionStore)),

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

		app.KeyManagerFactory,
		app.NamingConventionsFactory,

		routes.NewResourceLinker,
		rest_server.NewRootAPI,
		rest_server.NewProjectAPI,
		rest_server.NewConnectionAPI,
		rest_server.NewRuntimeAPI,
		rest_server.NewAppAPIServer,
		rest_server.NewAppAPIRouter,
		servertest.HTTPTestServerFactory,
		logger.NewLogRegistry,
		logger.MakeLogrusLogFactoryStdOut,
		clock.New,
	))
}
