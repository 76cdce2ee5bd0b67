package connections

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/store"
)

const (
	connectionProjectsTable        = "connection_projects"
	connectionProjectConnectionCol = "connection_project_connection_id"
	connectionProjectProjectCol    = "connection_project_project_id"
	connectionProjectCreatedAtCol  = "connection_project_created_at"
)

func init() {
	_ = models.MutableResource(&models.Connection{})
	store.MustDBModel(&models.Connection{})
}

type ConnectionStore struct {
	db    *store.DB
	table *store.ResourceTable
}

func NewStore(db *store.DB, logFactory logger.LogFactory) *ConnectionStore {
	return &ConnectionStore{
		db:    db,
		table: store.NewResourceTable(db, logFactory, &models.Connection{}),
	}
}

// Create a new connection, attaching it to each of its projects.
// Returns store.ErrAlreadyExists if a connection with the same platform and external id already exists.
func (d *ConnectionStore) Create(ctx context.Context, txOrNil *store.Tx, connection *models.Connection) error {
	return d.db.WithTx(ctx, txOrNil, func(tx *store.Tx) error {
		err := d.table.Create(ctx, tx, connection)
		if err != nil {
			return err
		}
		rows := make([]interface{}, 0, len(connection.ProjectIDs))
		for _, projectID := range connection.ProjectIDs {
			rows = append(rows, goqu.Record{
				connectionProjectConnectionCol: connection.ID,
				connectionProjectProjectCol:    projectID,
				connectionProjectCreatedAtCol:  connection.CreatedAt,
			})
		}
		return d.db.Write(tx, func(db store.Writer) error {
			_, err := d.table.LogInsert(db.Insert(connectionProjectsTable).Rows(rows...)).Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("error attaching connection to projects: %w", store.MakeStandardDBError(err))
			}
			return nil
		})
	})
}

// Read an existing connection, looking it up by ResourceID.
// Returns gerror.ErrNotFound if the connection does not exist.
func (d *ConnectionStore) Read(ctx context.Context, txOrNil *store.Tx, id models.ConnectionID) (*models.Connection, error) {
	connection := &models.Connection{}
	err := d.table.ReadByID(ctx, txOrNil, id.ResourceID, connection)
	if err != nil {
		return nil, err
	}
	return connection, d.loadProjectIDs(ctx, txOrNil, connection)
}

// ReadByExternalID reads an existing connection, looking it up by its platform and external id.
// Returns gerror.ErrNotFound if the connection does not exist.
func (d *ConnectionStore) ReadByExternalID(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, externalID string) (*models.Connection, error) {
	connection := &models.Connection{}
	err := d.table.ReadWhere(ctx, txOrNil, connection, goqu.Ex{
		"connection_platform_id": platformID,
		"connection_external_id": externalID,
	})
	if err != nil {
		return nil, err
	}
	return connection, d.loadProjectIDs(ctx, txOrNil, connection)
}

// Delete permanently and idempotently deletes a connection and its project attachments.
func (d *ConnectionStore) Delete(ctx context.Context, txOrNil *store.Tx, id models.ConnectionID) error {
	return d.db.WithTx(ctx, txOrNil, func(tx *store.Tx) error {
		err := d.db.Write(tx, func(db store.Writer) error {
			ds := db.Delete(connectionProjectsTable).Where(goqu.Ex{connectionProjectConnectionCol: id})
			_, err := ds.Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("error detaching connection from projects: %w", store.MakeStandardDBError(err))
			}
			return nil
		})
		if err != nil {
			return err
		}
		_, err = d.table.DeleteByID(ctx, tx, id.ResourceID)
		return err
	})
}

// ListByProjectID lists all connections attached to a project. Use cursor to page through results, if any.
func (d *ConnectionStore) ListByProjectID(ctx context.Context, txOrNil *store.Tx, projectID models.ProjectID, pagination models.Pagination) ([]*models.Connection, *models.Cursor, error) {
	connectionsSelect := d.table.Dialect().
		From(d.table.TableName()).
		Select(&models.Connection{}).
		Join(goqu.T(connectionProjectsTable), goqu.On(goqu.Ex{
			connectionProjectConnectionCol: goqu.I("connection_id"),
		})).
		Where(goqu.Ex{connectionProjectProjectCol: projectID})

	var connections []*models.Connection
	cursor, err := d.table.ListIn(ctx, txOrNil, &connections, pagination, connectionsSelect)
	if err != nil {
		return nil, nil, err
	}
	err = d.loadProjectIDs(ctx, txOrNil, connections...)
	if err != nil {
		return nil, nil, err
	}
	return connections, cursor, nil
}

type connectionProjectRow struct {
	ConnectionID string `db:"connection_project_connection_id"`
	ProjectID    string `db:"connection_project_project_id"`
}

// loadProjectIDs populates ProjectIDs for each of the supplied connections from the connection_projects table.
func (d *ConnectionStore) loadProjectIDs(ctx context.Context, txOrNil *store.Tx, connections ...*models.Connection) error {
	if len(connections) == 0 {
		return nil
	}
	byID := make(map[string]*models.Connection, len(connections))
	ids := make([]interface{}, 0, len(connections))
	for _, connection := range connections {
		connection.ProjectIDs = nil
		byID[connection.ID.String()] = connection
		ids = append(ids, connection.ID)
	}
	var rows []*connectionProjectRow
	err := d.db.Read(txOrNil, func(db store.Reader) error {
		ds := db.From(connectionProjectsTable).
			Select(goqu.C(connectionProjectConnectionCol), goqu.C(connectionProjectProjectCol)).
			Where(goqu.C(connectionProjectConnectionCol).In(ids...)).
			Order(goqu.C(connectionProjectCreatedAtCol).Asc(), goqu.C(connectionProjectProjectCol).Asc())
		return d.table.LogSelect(ds).ScanStructsContext(ctx, &rows)
	})
	if err != nil {
		return fmt.Errorf("error reading connection projects: %w", store.MakeStandardDBError(err))
	}
	for _, row := range rows {
		connection, ok := byID[row.ConnectionID]
		if !ok {
			continue
		}
		projectID, err := models.ParseProjectID(row.ProjectID)
		if err != nil {
			return fmt.Errorf("error parsing project id of connection %s: %w", row.ConnectionID, err)
		}
		connection.ProjectIDs = append(connection.ProjectIDs, projectID)
	}
	return nil
}
