package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
)

const (
	ProjectIDParam          = "project_id"
	ConnectionIDParam       = "connection_id"
	ConnectionExternalParam = "external_id"
)

var resourceIDParamToKindMap = map[string]models.ResourceKind{
	ProjectIDParam:    models.ProjectResourceKind,
	ConnectionIDParam: models.ConnectionResourceKind,
}

type ResourceLinker struct {
	logger.Log
}

func NewResourceLinker(logFactory logger.LogFactory) *ResourceLinker {
	return &ResourceLinker{
		Log: logFactory("ResourceLinker"),
	}
}

// GetLeafResourceID returns the id of the innermost resource named in the request's route, checking
// it is of the kind the route expects.
func (a *ResourceLinker) GetLeafResourceID(r *http.Request) (models.ResourceID, error) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return models.ResourceID{}, fmt.Errorf("error request has no route context")
	}
	params := rctx.URLParams
	for i := len(params.Keys) - 1; i >= 0; i-- {
		key := params.Keys[i]
		kind, ok := resourceIDParamToKindMap[key]
		if !ok {
			continue
		}
		value, err := StringParam(r, key)
		if err != nil {
			return models.ResourceID{}, err
		}
		id, err := models.ParseResourceID(value)
		if err != nil {
			return models.ResourceID{}, err
		}
		if id.Kind() != kind {
			return models.ResourceID{}, fmt.Errorf("error expected %s id in %q param but found %s", kind, key, id.Kind())
		}
		return id, nil
	}
	return models.ResourceID{}, fmt.Errorf("route does not contain a resource")
}
