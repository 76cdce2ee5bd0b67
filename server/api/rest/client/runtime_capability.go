package client

import (
	"context"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/common/resolution"
)

// RuntimeCapability reads connections over the REST API on behalf of a single plugin invocation.
// The server only returns connections attached to the invocation's project.
type RuntimeCapability struct {
	client   *APIClient
	identity resolution.ProjectIdentity
}

// NewRuntimeCapability makes a capability that reads connections for the project reported by identity.
// The client should be created WithRetryMax(0) so that a timed out lookup fails the invocation immediately.
func NewRuntimeCapability(client *APIClient, identity resolution.ProjectIdentity) *RuntimeCapability {
	return &RuntimeCapability{
		client:   client,
		identity: identity,
	}
}

func (c *RuntimeCapability) Get(ctx context.Context, externalConnectionID string) (*models.ConnectionValue, error) {
	var projectExternalID string
	if c.identity != nil {
		projectExternalID, _ = c.identity.ExternalID()
	}
	doc, err := c.client.GetRuntimeConnection(ctx, externalConnectionID, projectExternalID)
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

var _ resolution.ConnectionsCapability = (*RuntimeCapability)(nil)
