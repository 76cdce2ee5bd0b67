package server

import (
	"net/http"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/api/rest/routes"
	"github.com/buildbeaver/connections/server/services"
)

type ConnectionAPI struct {
	connectionService services.ConnectionService
	*APIBase
}

func NewConnectionAPI(
	connectionService services.ConnectionService,
	resourceLinker *routes.ResourceLinker,
	logFactory logger.LogFactory) *ConnectionAPI {
	return &ConnectionAPI{
		connectionService: connectionService,
		APIBase:           NewAPIBase(resourceLinker, logFactory("ConnectionAPI")),
	}
}

// Create provisions a connection. The value is never echoed back.
func (a *ConnectionAPI) Create(w http.ResponseWriter, r *http.Request) {
	req := &documents.CreateConnectionRequest{}
	err := a.Bind(r, req)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	connection, err := a.connectionService.Create(r.Context(), a.PlatformID(r), req.ToConnectionCreate())
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.CreatedResource(w, r, documents.MakeConnection(routes.RequestCtx(r), connection))
}

func (a *ConnectionAPI) Get(w http.ResponseWriter, r *http.Request) {
	connectionID, err := a.ConnectionID(r)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	connection, err := a.connectionService.Read(r.Context(), nil, a.PlatformID(r), connectionID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.GotResource(w, r, documents.MakeConnection(routes.RequestCtx(r), connection))
}

func (a *ConnectionAPI) Delete(w http.ResponseWriter, r *http.Request) {
	connectionID, err := a.ConnectionID(r)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	err = a.connectionService.Delete(r.Context(), a.PlatformID(r), connectionID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.NoContent(w, r)
}
