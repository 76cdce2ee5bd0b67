package store

import (
	"context"

	"github.com/buildbeaver/connections/common/models"
)

type ProjectStore interface {
	// Create a new project.
	// Returns store.ErrAlreadyExists if a project with matching unique properties already exists.
	Create(ctx context.Context, txOrNil *Tx, project *models.Project) error
	// Read an existing project, looking it up by ID.
	// Returns gerror.ErrNotFound if the project does not exist.
	Read(ctx context.Context, txOrNil *Tx, id models.ProjectID) (*models.Project, error)
	// ReadByExternalID reads an existing project, looking it up by its platform and external id.
	// Returns gerror.ErrNotFound if the project does not exist.
	ReadByExternalID(ctx context.Context, txOrNil *Tx, platformID models.PlatformID, externalID string) (*models.Project, error)
	// FindOrCreate creates the supplied project if no project with the same platform and external id already
	// exists, otherwise it reads and returns the existing project.
	// Returns the project as it is in the database, and true iff a new project was created.
	FindOrCreate(ctx context.Context, txOrNil *Tx, project *models.Project) (result *models.Project, created bool, err error)
	// List projects belonging to a platform, optionally filtered by external id. Use cursor to page through
	// results, if any.
	List(ctx context.Context, txOrNil *Tx, platformID models.PlatformID, search *models.ProjectSearch, pagination models.Pagination) ([]*models.Project, *models.Cursor, error)
}

type ConnectionStore interface {
	// Create a new connection, attaching it to each of its projects.
	// Returns store.ErrAlreadyExists if a connection with the same platform and external id already exists.
	Create(ctx context.Context, txOrNil *Tx, connection *models.Connection) error
	// Read an existing connection, looking it up by ID.
	// Returns gerror.ErrNotFound if the connection does not exist.
	Read(ctx context.Context, txOrNil *Tx, id models.ConnectionID) (*models.Connection, error)
	// ReadByExternalID reads an existing connection, looking it up by its platform and external id.
	// Returns gerror.ErrNotFound if the connection does not exist.
	ReadByExternalID(ctx context.Context, txOrNil *Tx, platformID models.PlatformID, externalID string) (*models.Connection, error)
	// Delete permanently and idempotently deletes a connection and its project attachments.
	Delete(ctx context.Context, txOrNil *Tx, id models.ConnectionID) error
	// ListByProjectID lists all connections attached to a project. Use cursor to page through results, if any.
	ListByProjectID(ctx context.Context, txOrNil *Tx, projectID models.ProjectID, pagination models.Pagination) ([]*models.Connection, *models.Cursor, error)
}
