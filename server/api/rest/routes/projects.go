package routes

import (
	"fmt"

	"github.com/buildbeaver/connections/common/models"
)

func MakeProjectsLink(rctx RequestContext) string {
	return fmt.Sprintf("%s/api/v1/projects", rctx.BaseURL())
}

func MakeProjectLink(rctx RequestContext, projectID models.ProjectID) string {
	return fmt.Sprintf("%s/%s", MakeProjectsLink(rctx), projectID)
}

func MakeProjectConnectionsLink(rctx RequestContext, projectID models.ProjectID) string {
	return fmt.Sprintf("%s/global-connections", MakeProjectLink(rctx, projectID))
}
