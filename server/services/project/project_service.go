package project

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/store"
)

type ProjectService struct {
	projectStore store.ProjectStore
	clock        clock.Clock
	logger.Log
}

func NewProjectService(
	projectStore store.ProjectStore,
	clk clock.Clock,
	logFactory logger.LogFactory,
) *ProjectService {
	return &ProjectService{
		projectStore: projectStore,
		clock:        clk,
		Log:          logFactory("ProjectService"),
	}
}

// GetOrCreate returns the project with the supplied external id within the platform, creating it if it
// does not exist. Concurrent calls for the same external id all return the same project.
// Returns true iff the project was created by this call.
func (s *ProjectService) GetOrCreate(ctx context.Context, platformID models.PlatformID, data *models.ProjectData) (*models.Project, bool, error) {
	if data == nil {
		return nil, false, gerror.NewErrValidationFailed("Project data must be supplied")
	}
	if err := platformID.Validate(); err != nil {
		return nil, false, gerror.NewErrValidationFailed(err.Error()).Wrap(err)
	}
	if err := data.Validate(); err != nil {
		return nil, false, gerror.NewErrValidationFailed(err.Error()).Wrap(err)
	}
	// No transaction: a racing create fails on the unique index and FindOrCreate re-reads the winner,
	// which is only possible outside the failed transaction on postgres.
	project, created, err := s.projectStore.FindOrCreate(ctx, nil, models.NewProject(models.Now(s.clock), platformID, *data))
	if err != nil {
		return nil, false, fmt.Errorf("error finding or creating project: %w", err)
	}
	if created {
		s.WithFields(logger.Fields{
			"platform_id": platformID,
			"project_id":  project.ID,
			"external_id": project.ExternalID,
		}).Info("Created project")
	}
	return project, created, nil
}

// Read an existing project, looking it up by ID.
// Returns gerror.ErrNotFound if the project does not exist within the platform.
func (s *ProjectService) Read(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, id models.ProjectID) (*models.Project, error) {
	project, err := s.projectStore.Read(ctx, txOrNil, id)
	if err != nil {
		return nil, err
	}
	if project.PlatformID != platformID {
		return nil, gerror.NewErrNotFound(fmt.Sprintf("Project %s not found", id))
	}
	return project, nil
}

// ReadByExternalID reads an existing project, looking it up by external id.
// Returns gerror.ErrNotFound if the project does not exist within the platform.
func (s *ProjectService) ReadByExternalID(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, externalID string) (*models.Project, error) {
	return s.projectStore.ReadByExternalID(ctx, txOrNil, platformID, externalID)
}

// List projects within the platform, optionally filtered by external id. Use cursor to page through results, if any.
func (s *ProjectService) List(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, search *models.ProjectSearch, pagination models.Pagination) ([]*models.Project, *models.Cursor, error) {
	return s.projectStore.List(ctx, txOrNil, platformID, search, pagination)
}
