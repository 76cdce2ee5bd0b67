package routes

import (
	"fmt"
	"net/url"

	"github.com/buildbeaver/connections/common/models"
)

func MakeConnectionsLink(rctx RequestContext) string {
	return fmt.Sprintf("%s/api/v1/global-connections", rctx.BaseURL())
}

func MakeConnectionLink(rctx RequestContext, connectionID models.ConnectionID) string {
	return fmt.Sprintf("%s/%s", MakeConnectionsLink(rctx), connectionID)
}

func MakeRuntimeConnectionsLink(rctx RequestContext) string {
	return fmt.Sprintf("%s/api/v1/runtime/connections", rctx.BaseURL())
}

func MakeRuntimeConnectionLink(rctx RequestContext, externalID string) string {
	return fmt.Sprintf("%s/%s", MakeRuntimeConnectionsLink(rctx), url.PathEscape(externalID))
}

func MakeMetricsLink(rctx RequestContext) string {
	return fmt.Sprintf("%s/metrics", rctx.BaseURL())
}
