package server

import (
	"net/http"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/api/rest/routes"
	"github.com/buildbeaver/connections/server/services"
)

type ProjectAPI struct {
	projectService    services.ProjectService
	connectionService services.ConnectionService
	*APIBase
}

func NewProjectAPI(
	projectService services.ProjectService,
	connectionService services.ConnectionService,
	resourceLinker *routes.ResourceLinker,
	logFactory logger.LogFactory) *ProjectAPI {
	return &ProjectAPI{
		projectService:    projectService,
		connectionService: connectionService,
		APIBase:           NewAPIBase(resourceLinker, logFactory("ProjectAPI")),
	}
}

// GetOrCreate returns the project with the requested external id, creating it if needed.
// Responds 201 if the project was created by this request, otherwise 200.
func (a *ProjectAPI) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	req := &documents.CreateProjectRequest{}
	err := a.Bind(r, req)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	project, created, err := a.projectService.GetOrCreate(r.Context(), a.PlatformID(r), req.ToProjectData())
	if err != nil {
		a.Error(w, r, err)
		return
	}
	res := documents.MakeProject(routes.RequestCtx(r), project)
	if created {
		a.CreatedResource(w, r, res)
	} else {
		a.GotResource(w, r, res)
	}
}

func (a *ProjectAPI) Get(w http.ResponseWriter, r *http.Request) {
	projectID, err := a.ProjectID(r)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	project, err := a.projectService.Read(r.Context(), nil, a.PlatformID(r), projectID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.GotResource(w, r, documents.MakeProject(routes.RequestCtx(r), project))
}

func (a *ProjectAPI) List(w http.ResponseWriter, r *http.Request) {
	req := documents.NewProjectListRequest()
	err := req.FromQuery(r.URL.Query())
	if err != nil {
		a.Error(w, r, err)
		return
	}
	projects, cursor, err := a.projectService.List(r.Context(), nil, a.PlatformID(r), req.ToSearch(), req.Pagination)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	rctx := routes.RequestCtx(r)
	docs := documents.MakeProjects(rctx, projects)
	res := documents.NewPaginatedResponse(models.ProjectResourceKind, routes.MakeProjectsLink(rctx), req, docs, cursor)
	a.JSON(w, r, res)
}

// ListConnections lists the connections attached to a project, without their values.
func (a *ProjectAPI) ListConnections(w http.ResponseWriter, r *http.Request) {
	projectID, err := a.ProjectID(r)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	req := documents.NewListRequest()
	err = req.FromQuery(r.URL.Query())
	if err != nil {
		a.Error(w, r, err)
		return
	}
	connections, cursor, err := a.connectionService.ListByProject(r.Context(), nil, a.PlatformID(r), projectID, req.Pagination)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	rctx := routes.RequestCtx(r)
	docs := documents.MakeConnections(rctx, connections)
	res := documents.NewPaginatedResponse(models.ConnectionResourceKind, routes.MakeProjectConnectionsLink(rctx, projectID), req, docs, cursor)
	a.JSON(w, r, res)
}
