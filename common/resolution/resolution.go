package resolution

import (
	"context"

	"github.com/buildbeaver/connections/common/models"
)

// ConnectionsCapability is supplied by the plugin host and reads connections on behalf of a single
// invocation. Get returns gerror.ErrNotFound, or a nil value, when no connection has the external id.
type ConnectionsCapability interface {
	Get(ctx context.Context, externalConnectionID string) (*models.ConnectionValue, error)
}

// ConnectionsCapabilityFunc adapts a function to a ConnectionsCapability.
type ConnectionsCapabilityFunc func(ctx context.Context, externalConnectionID string) (*models.ConnectionValue, error)

func (f ConnectionsCapabilityFunc) Get(ctx context.Context, externalConnectionID string) (*models.ConnectionValue, error) {
	return f(ctx, externalConnectionID)
}

// ProjectIdentity is supplied by the plugin host and reports the external id of the tenant project an
// invocation runs for. ExternalID returns false when the host has no project to report.
type ProjectIdentity interface {
	ExternalID() (string, bool)
}

// StaticProjectIdentity is a ProjectIdentity with a fixed external id. The zero value reports no project.
type StaticProjectIdentity string

func (s StaticProjectIdentity) ExternalID() (string, bool) {
	return string(s), s != ""
}

// NoProjectIdentity reports that the invocation has no tenant project.
var NoProjectIdentity ProjectIdentity = StaticProjectIdentity("")
