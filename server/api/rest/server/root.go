package server

import (
	"net/http"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/api/rest/routes"
)

var rootDocumentPaths = map[string]func(ctx routes.RequestContext) string{
	"projects_url":            routes.MakeProjectsLink,
	"global_connections_url":  routes.MakeConnectionsLink,
	"runtime_connections_url": routes.MakeRuntimeConnectionsLink,
	"metrics_url":             routes.MakeMetricsLink,
}

type RootAPI struct {
	*APIBase
}

func NewRootAPI(resourceLinker *routes.ResourceLinker, logFactory logger.LogFactory) *RootAPI {
	return &RootAPI{
		APIBase: NewAPIBase(resourceLinker, logFactory("RootAPI")),
	}
}

func (a *RootAPI) GetRootDocument(w http.ResponseWriter, r *http.Request) {
	res := make(documents.GetRootDocumentResponse)
	for name, fn := range rootDocumentPaths {
		res[name] = fn(routes.RequestCtx(r))
	}
	a.JSON(w, r, res)
}
