package resolution

import (
	"context"
	"fmt"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
)

// Resolver resolves the predefined connection a piece should use for the tenant project an invocation
// runs for. It holds no state between calls; every call reads through the capability.
type Resolver struct {
	capability ConnectionsCapability
	logger.Log
}

func NewResolver(capability ConnectionsCapability, logFactory logger.LogFactory) *Resolver {
	return &Resolver{
		capability: capability,
		Log:        logFactory("ResolutionClient"),
	}
}

// Resolve returns the value of the connection named by prefix and the project's external id.
// Returns gerror.ErrMissingTenantIdentity if identity reports no project, and gerror.ErrConnectionNotFound
// if no such connection has been provisioned. Neither is worth retrying.
func (r *Resolver) Resolve(ctx context.Context, prefix models.NamingPrefix, identity ProjectIdentity) (*models.ConnectionValue, error) {
	if err := prefix.Validate(); err != nil {
		recordResolution(prefix.String(), outcomeError)
		return nil, gerror.NewErrValidationFailed(err.Error()).Wrap(err)
	}
	var (
		projectExternalID string
		ok                bool
	)
	if identity != nil {
		projectExternalID, ok = identity.ExternalID()
	}
	if !ok || projectExternalID == "" {
		recordResolution(prefix.String(), outcomeMissingTenantIdentity)
		return nil, gerror.NewErrMissingTenantIdentity()
	}

	externalID := prefix.ConnectionExternalID(projectExternalID)
	value, err := r.capability.Get(ctx, externalID)
	if err != nil && !gerror.IsNotFound(err) && !gerror.IsConnectionNotFound(err) {
		recordResolution(prefix.String(), outcomeError)
		return nil, fmt.Errorf("error resolving connection %q: %w", externalID, err)
	}
	if err != nil || value == nil {
		recordResolution(prefix.String(), outcomeConnectionNotFound)
		r.WithField("external_id", externalID).Warn("No predefined connection provisioned")
		return nil, gerror.NewErrConnectionNotFound(externalID)
	}
	recordResolution(prefix.String(), outcomeResolved)
	r.WithFields(logger.Fields{
		"external_id": externalID,
		"auth_type":   value.Type,
	}).Debug("Resolved connection")
	return value, nil
}

// ResolveAs resolves the connection named by the convention's prefix and checks the value matches the
// auth type and props schema the piece expects.
// Returns gerror.ErrValidationFailed if it does not.
func (r *Resolver) ResolveAs(ctx context.Context, convention models.ConnectionNamingConvention, identity ProjectIdentity) (*models.ConnectionValue, error) {
	value, err := r.Resolve(ctx, convention.Prefix, identity)
	if err != nil {
		return nil, err
	}
	if err := value.ValidateAs(convention.AuthType); err != nil {
		recordResolution(convention.Prefix.String(), outcomeSchemaMismatch)
		return nil, gerror.NewErrValidationFailed(
			fmt.Sprintf("Connection for piece %q does not match its authentication schema: %s", convention.PieceName, err)).Wrap(err)
	}
	return value, nil
}
