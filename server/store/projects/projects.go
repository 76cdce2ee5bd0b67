package projects

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/store"
)

func init() {
	_ = models.MutableResource(&models.Project{})
	store.MustDBModel(&models.Project{})
}

type ProjectStore struct {
	table *store.ResourceTable
}

func NewStore(db *store.DB, logFactory logger.LogFactory) *ProjectStore {
	return &ProjectStore{
		table: store.NewResourceTable(db, logFactory, &models.Project{}),
	}
}

// Create a new project.
// Returns store.ErrAlreadyExists if a project with matching unique properties already exists.
func (d *ProjectStore) Create(ctx context.Context, txOrNil *store.Tx, project *models.Project) error {
	return d.table.Create(ctx, txOrNil, project)
}

// Read an existing project, looking it up by ResourceID.
// Returns gerror.ErrNotFound if the project does not exist.
func (d *ProjectStore) Read(ctx context.Context, txOrNil *store.Tx, id models.ProjectID) (*models.Project, error) {
	project := &models.Project{}
	return project, d.table.ReadByID(ctx, txOrNil, id.ResourceID, project)
}

// ReadByExternalID reads an existing project, looking it up by its platform and external id.
// Returns gerror.ErrNotFound if the project does not exist.
func (d *ProjectStore) ReadByExternalID(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, externalID string) (*models.Project, error) {
	project := &models.Project{}
	return project, d.table.ReadWhere(ctx, txOrNil, project, goqu.Ex{
		"project_platform_id": platformID,
		"project_external_id": externalID,
	})
}

// FindOrCreate creates the supplied project if no project with the same platform and external id already
// exists, otherwise it reads and returns the existing project.
// Returns the project as it is in the database, and true iff a new project was created.
// A racing create is detected via the unique index on (platform, external id) and resolved by re-reading,
// so txOrNil should be nil unless the caller can tolerate an aborted transaction on conflict.
func (d *ProjectStore) FindOrCreate(ctx context.Context, txOrNil *store.Tx, project *models.Project) (result *models.Project, created bool, err error) {
	if project.ExternalID == "" {
		return nil, false, fmt.Errorf("error external id must be set to call FindOrCreate")
	}
	resource, created, err := d.table.FindOrCreate(ctx, txOrNil,
		func(ctx context.Context, tx *store.Tx) (models.Resource, error) {
			return d.ReadByExternalID(ctx, tx, project.PlatformID, project.ExternalID)
		},
		func(ctx context.Context, tx *store.Tx) (models.Resource, error) {
			return project, d.Create(ctx, tx, project)
		},
	)
	if err != nil {
		return nil, false, err
	}
	return resource.(*models.Project), created, nil
}

// List projects belonging to a platform, optionally filtered by external id. Use cursor to page through
// results, if any.
func (d *ProjectStore) List(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, search *models.ProjectSearch, pagination models.Pagination) ([]*models.Project, *models.Cursor, error) {
	where := goqu.Ex{"project_platform_id": platformID}
	if search != nil && search.ExternalID != nil {
		where["project_external_id"] = *search.ExternalID
	}
	projectsSelect := d.table.Dialect().
		From(d.table.TableName()).
		Select(&models.Project{}).
		Where(where)

	var projects []*models.Project
	cursor, err := d.table.ListIn(ctx, txOrNil, &projects, pagination, projectsSelect)
	if err != nil {
		return nil, nil, err
	}
	return projects, cursor, nil
}
