package server_test

import (
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/server"
	"github.com/buildbeaver/connections/server/services"
	"github.com/buildbeaver/connections/server/store"
)

type TestServer struct {
	DB                    *store.DB
	ProjectStore          store.ProjectStore
	ConnectionStore       store.ConnectionStore
	ProjectService        services.ProjectService
	ConnectionService     services.ConnectionService
	EncryptionService     services.EncryptionService
	CredentialService     services.CredentialService
	AuthenticationService services.AuthenticationService
	Conventions           *models.NamingConventions
	LogFactory            logger.LogFactory

	CoreAPIServer *server.AppAPIServer
}

func NewTestServer(
	db *store.DB,
	projectStore store.ProjectStore,
	connectionStore store.ConnectionStore,
	projectService services.ProjectService,
	connectionService services.ConnectionService,
	encryptionService services.EncryptionService,
	credentialService services.CredentialService,
	authenticationService services.AuthenticationService,
	conventions *models.NamingConventions,
	logFactory logger.LogFactory,
	coreAPIServer *server.AppAPIServer,
) *TestServer {
	return &TestServer{
		DB:                    db,
		ProjectStore:          projectStore,
		ConnectionStore:       connectionStore,
		ProjectService:        projectService,
		ConnectionService:     connectionService,
		EncryptionService:     encryptionService,
		CredentialService:     credentialService,
		AuthenticationService: authenticationService,
		Conventions:           conventions,
		LogFactory:            logFactory,
		CoreAPIServer:         coreAPIServer,
	}
}
