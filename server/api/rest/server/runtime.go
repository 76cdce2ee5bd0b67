package server

import (
	"net/http"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/api/rest/routes"
	"github.com/buildbeaver/connections/server/services"
)

// ProjectExternalIDQueryParam names the project the runtime is acting for.
const ProjectExternalIDQueryParam = "projectExternalId"

// RuntimeAPI serves connection values to the plugin runtime.
type RuntimeAPI struct {
	projectService    services.ProjectService
	connectionService services.ConnectionService
	*APIBase
}

func NewRuntimeAPI(
	projectService services.ProjectService,
	connectionService services.ConnectionService,
	resourceLinker *routes.ResourceLinker,
	logFactory logger.LogFactory) *RuntimeAPI {
	return &RuntimeAPI{
		projectService:    projectService,
		connectionService: connectionService,
		APIBase:           NewAPIBase(resourceLinker, logFactory("RuntimeAPI")),
	}
}

// GetConnection returns a connection including its value. The connection must be attached to the
// requesting project; a missing project or an unattached connection is reported as ConnectionNotFound.
func (a *RuntimeAPI) GetConnection(w http.ResponseWriter, r *http.Request) {
	externalID, err := routes.StringParam(r, routes.ConnectionExternalParam)
	if err != nil {
		a.Error(w, r, gerror.NewErrNotFound("Not Found").Wrap(err))
		return
	}
	projectExternalID := r.URL.Query().Get(ProjectExternalIDQueryParam)
	if projectExternalID == "" {
		a.Error(w, r, gerror.NewErrMissingTenantIdentity())
		return
	}
	platformID := a.PlatformID(r)
	project, err := a.projectService.ReadByExternalID(r.Context(), nil, platformID, projectExternalID)
	if err != nil {
		if gerror.IsNotFound(err) {
			err = gerror.NewErrConnectionNotFound(externalID).Wrap(err)
		}
		a.Error(w, r, err)
		return
	}
	connection, err := a.connectionService.Lookup(r.Context(), platformID, externalID, &project.ID)
	if err != nil {
		if gerror.IsNotFound(err) {
			err = gerror.NewErrConnectionNotFound(externalID).Wrap(err)
		}
		a.Error(w, r, err)
		return
	}
	a.GotResource(w, r, documents.MakeRuntimeConnection(routes.RequestCtx(r), connection))
}
