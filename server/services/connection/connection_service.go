package connection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/services"
	"github.com/buildbeaver/connections/server/store"
)

type ConnectionService struct {
	db                *store.DB
	connectionStore   store.ConnectionStore
	projectStore      store.ProjectStore
	encryptionService services.EncryptionService
	conventions       *models.NamingConventions
	clock             clock.Clock
	logger.Log
}

func NewConnectionService(
	db *store.DB,
	connectionStore store.ConnectionStore,
	projectStore store.ProjectStore,
	encryptionService services.EncryptionService,
	conventions *models.NamingConventions,
	clk clock.Clock,
	logFactory logger.LogFactory,
) *ConnectionService {
	return &ConnectionService{
		db:                db,
		connectionStore:   connectionStore,
		projectStore:      projectStore,
		encryptionService: encryptionService,
		conventions:       conventions,
		clock:             clk,
		Log:               logFactory("ConnectionService"),
	}
}

// Create a new connection holding the supplied value, attached to the supplied projects.
// If no external id is supplied and the piece has a naming convention, the external id is derived
// from the external id of the connection's single project.
// Returns gerror.ErrAlreadyExists if a connection with the same external id already exists within the
// platform; the existing connection is left unchanged.
func (s *ConnectionService) Create(ctx context.Context, platformID models.PlatformID, create *models.ConnectionCreate) (*models.Connection, error) {
	if create == nil {
		return nil, gerror.NewErrValidationFailed("Connection must be supplied")
	}
	if err := platformID.Validate(); err != nil {
		return nil, gerror.NewErrValidationFailed(err.Error()).Wrap(err)
	}
	request := *create
	if request.Value == nil {
		return nil, gerror.NewErrValidationFailed("Connection value must be supplied")
	}
	if err := request.Value.ValidateAs(request.AuthType); err != nil {
		return nil, gerror.NewErrValidationFailed(err.Error()).Wrap(err)
	}

	valueJSON, err := json.Marshal(request.Value)
	if err != nil {
		return nil, errors.Wrap(err, "error marshalling connection value")
	}
	valueEncrypted, dataKeyEncrypted, err := s.encryptionService.Encrypt(ctx, valueJSON)
	if err != nil {
		return nil, errors.Wrap(err, "error encrypting connection value")
	}

	var connection *models.Connection
	err = s.db.WithTx(ctx, nil, func(tx *store.Tx) error {
		projects := make([]*models.Project, 0, len(request.ProjectIDs))
		for _, projectID := range request.ProjectIDs {
			project, err := s.readProject(ctx, tx, platformID, projectID)
			if err != nil {
				return err
			}
			projects = append(projects, project)
		}
		if request.ExternalID == "" {
			externalID, err := s.deriveExternalID(&request, projects)
			if err != nil {
				return err
			}
			request.ExternalID = externalID
		}
		if err := request.Validate(); err != nil {
			return gerror.NewErrValidationFailed(err.Error()).Wrap(err)
		}
		connection = models.NewConnection(models.Now(s.clock), platformID, &request, valueEncrypted, dataKeyEncrypted)
		err = s.connectionStore.Create(ctx, tx, connection)
		if err != nil {
			if gerror.IsAlreadyExists(err) {
				return gerror.NewErrAlreadyExists(fmt.Sprintf("A connection with external id %q already exists", request.ExternalID)).
					EDetail(gerror.DetailExternalID, request.ExternalID).
					Wrap(err)
			}
			return errors.Wrap(err, "error creating connection")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.WithFields(logger.Fields{
		"platform_id":   platformID,
		"connection_id": connection.ID,
		"external_id":   connection.ExternalID,
		"piece_name":    connection.PieceName,
		"auth_type":     connection.AuthType,
	}).Info("Created connection")
	return connection, nil
}

// Read an existing connection, looking it up by ID. The value is not decrypted.
// Returns gerror.ErrNotFound if the connection does not exist within the platform.
func (s *ConnectionService) Read(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, id models.ConnectionID) (*models.Connection, error) {
	connection, err := s.connectionStore.Read(ctx, txOrNil, id)
	if err != nil {
		return nil, err
	}
	if connection.PlatformID != platformID {
		return nil, gerror.NewErrNotFound(fmt.Sprintf("Connection %s not found", id))
	}
	return connection, nil
}

// Lookup reads a connection by external id and decrypts its value.
// If requestingProject is supplied and the connection is not attached to it, the connection is
// reported as not found. Returns gerror.ErrNotFound if the connection does not exist.
func (s *ConnectionService) Lookup(ctx context.Context, platformID models.PlatformID, externalID string, requestingProject *models.ProjectID) (*models.Connection, error) {
	if externalID == "" {
		return nil, gerror.NewErrValidationFailed("error external id must be set")
	}
	// Nothing longer can have been created
	if len(externalID) > models.MaxConnectionExternalIDLength {
		return nil, gerror.NewErrNotFound(fmt.Sprintf("No connection found with external id %q", externalID)).
			EDetail(gerror.DetailExternalID, externalID)
	}
	connection, err := s.connectionStore.ReadByExternalID(ctx, nil, platformID, externalID)
	if err != nil {
		if gerror.IsNotFound(err) {
			return nil, gerror.NewErrNotFound(fmt.Sprintf("No connection found with external id %q", externalID)).
				EDetail(gerror.DetailExternalID, externalID).
				Wrap(err)
		}
		return nil, errors.Wrap(err, "error reading connection")
	}
	if requestingProject != nil && !connection.IsAttachedTo(*requestingProject) {
		s.WithFields(logger.Fields{
			"external_id": externalID,
			"project_id":  *requestingProject,
		}).Warn("Connection lookup from a project the connection is not attached to")
		return nil, gerror.NewErrNotFound(fmt.Sprintf("No connection found with external id %q", externalID)).
			EDetail(gerror.DetailExternalID, externalID)
	}
	if connection.ValueSchemaVersion > models.ConnectionValueSchemaVersion {
		return nil, gerror.NewErrValidationFailed(fmt.Sprintf(
			"Connection %q was written with value schema version %d; this server supports up to version %d",
			externalID, connection.ValueSchemaVersion, models.ConnectionValueSchemaVersion))
	}
	valueJSON, err := s.encryptionService.Decrypt(ctx, connection.ValueEncrypted, connection.DataKeyEncrypted)
	if err != nil {
		return nil, errors.Wrap(err, "error decrypting connection value")
	}
	value := &models.ConnectionValue{}
	err = json.Unmarshal(valueJSON, value)
	if err != nil {
		return nil, errors.Wrap(err, "error unmarshalling connection value")
	}
	connection.Value = value
	s.WithFields(logger.Fields{
		"connection_id": connection.ID,
		"external_id":   connection.ExternalID,
	}).Debug("Looked up connection")
	return connection, nil
}

// ListByProject lists the connections attached to a project. Values are not decrypted.
func (s *ConnectionService) ListByProject(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, projectID models.ProjectID, pagination models.Pagination) ([]*models.Connection, *models.Cursor, error) {
	_, err := s.readProject(ctx, txOrNil, platformID, projectID)
	if err != nil {
		return nil, nil, err
	}
	return s.connectionStore.ListByProjectID(ctx, txOrNil, projectID, pagination)
}

// Delete permanently deletes a connection.
// Returns gerror.ErrNotFound if the connection does not exist within the platform.
func (s *ConnectionService) Delete(ctx context.Context, platformID models.PlatformID, id models.ConnectionID) error {
	var externalID string
	err := s.db.WithTx(ctx, nil, func(tx *store.Tx) error {
		connection, err := s.Read(ctx, tx, platformID, id)
		if err != nil {
			return err
		}
		externalID = connection.ExternalID
		return s.connectionStore.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.WithFields(logger.Fields{
		"platform_id":   platformID,
		"connection_id": id,
		"external_id":   externalID,
	}).Info("Deleted connection")
	return nil
}

// readProject reads a project, reporting projects belonging to other platforms as not found.
func (s *ConnectionService) readProject(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, projectID models.ProjectID) (*models.Project, error) {
	if !projectID.Valid() || projectID.Kind() != models.ProjectResourceKind {
		return nil, gerror.NewErrValidationFailed(fmt.Sprintf("Invalid project id %q", projectID))
	}
	project, err := s.projectStore.Read(ctx, txOrNil, projectID)
	if err != nil && !gerror.IsNotFound(err) {
		return nil, errors.Wrap(err, "error reading project")
	}
	if err != nil || project.PlatformID != platformID {
		return nil, gerror.NewErrNotFound(fmt.Sprintf("Project %s not found", projectID))
	}
	return project, nil
}

// deriveExternalID returns the external id dictated by the piece's naming convention.
func (s *ConnectionService) deriveExternalID(request *models.ConnectionCreate, projects []*models.Project) (string, error) {
	convention, ok := s.conventions.ForPiece(request.PieceName)
	if !ok {
		return "", gerror.NewErrValidationFailed(fmt.Sprintf(
			"External id must be supplied: piece %q has no naming convention", request.PieceName))
	}
	if len(projects) != 1 {
		return "", gerror.NewErrValidationFailed(fmt.Sprintf(
			"External id must be supplied: cannot derive it for piece %q from %d projects", request.PieceName, len(projects)))
	}
	if convention.AuthType != request.AuthType {
		return "", gerror.NewErrValidationFailed(fmt.Sprintf(
			"Piece %q expects connections of type %s but found %s", request.PieceName, convention.AuthType, request.AuthType))
	}
	return convention.Prefix.ConnectionExternalID(projects[0].ExternalID), nil
}
