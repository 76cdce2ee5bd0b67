package connection

import (
	"context"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/common/resolution"
	"github.com/buildbeaver/connections/server/services"
)

// LookupCapability reads connections in-process on behalf of a plugin invocation, optionally restricted
// to the connections attached to a single project.
type LookupCapability struct {
	connectionService services.ConnectionService
	platformID        models.PlatformID
	requestingProject *models.ProjectID
}

var _ resolution.ConnectionsCapability = (*LookupCapability)(nil)

// NewLookupCapability returns a capability reading connections in the platform. requestingProject may
// be nil, in which case connections are not restricted to a project.
func NewLookupCapability(connectionService services.ConnectionService, platformID models.PlatformID, requestingProject *models.ProjectID) *LookupCapability {
	return &LookupCapability{
		connectionService: connectionService,
		platformID:        platformID,
		requestingProject: requestingProject,
	}
}

func (c *LookupCapability) Get(ctx context.Context, externalConnectionID string) (*models.ConnectionValue, error) {
	connection, err := c.connectionService.Lookup(ctx, c.platformID, externalConnectionID, c.requestingProject)
	if err != nil {
		return nil, err
	}
	return connection.Value, nil
}
