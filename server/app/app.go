package app

import (
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/server"
	"github.com/buildbeaver/connections/server/services"
)

type Server struct {
	ProjectService    services.ProjectService
	ConnectionService services.ConnectionService
	Conventions       *models.NamingConventions
	CoreAPIServer     *server.AppAPIServer
}

func NewServer(
	projectService services.ProjectService,
	connectionService services.ConnectionService,
	conventions *models.NamingConventions,
	coreAPIServer *server.AppAPIServer,
) *Server {
	return &Server{
		ProjectService:    projectService,
		ConnectionService: connectionService,
		Conventions:       conventions,
		CoreAPIServer:     coreAPIServer,
	}
}
