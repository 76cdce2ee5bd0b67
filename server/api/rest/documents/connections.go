package documents

import (
	"net/http"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/routes"
)

// Connection represents a connection without its value.
type Connection struct {
	baseResourceDocument

	ID                 models.ConnectionID    `json:"id"`
	CreatedAt          models.Time            `json:"createdAt"`
	UpdatedAt          models.Time            `json:"updatedAt"`
	ETag               models.ETag            `json:"etag"`
	PlatformID         models.PlatformID      `json:"platformId"`
	ExternalID         string                 `json:"externalId"`
	DisplayName        string                 `json:"displayName"`
	PieceName          string                 `json:"pieceName"`
	Type               models.AuthType        `json:"type"`
	Scope              models.ConnectionScope `json:"scope"`
	ProjectIDs         []models.ProjectID     `json:"projectIds"`
	ValueSchemaVersion int                    `json:"valueSchemaVersion"`
}

func MakeConnection(rctx routes.RequestContext, connection *models.Connection) *Connection {
	projectIDs := connection.ProjectIDs
	if projectIDs == nil {
		projectIDs = []models.ProjectID{}
	}
	return &Connection{
		baseResourceDocument: baseResourceDocument{
			URL: routes.MakeConnectionLink(rctx, connection.ID),
		},
		ID:                 connection.ID,
		CreatedAt:          connection.CreatedAt,
		UpdatedAt:          connection.UpdatedAt,
		ETag:               connection.ETag,
		PlatformID:         connection.PlatformID,
		ExternalID:         connection.ExternalID,
		DisplayName:        connection.DisplayName,
		PieceName:          connection.PieceName,
		Type:               connection.AuthType,
		Scope:              connection.Scope,
		ProjectIDs:         projectIDs,
		ValueSchemaVersion: connection.ValueSchemaVersion,
	}
}

func MakeConnections(rctx routes.RequestContext, connections []*models.Connection) []*Connection {
	docs := make([]*Connection, 0, len(connections))
	for _, connection := range connections {
		docs = append(docs, MakeConnection(rctx, connection))
	}
	return docs
}

func (d *Connection) GetID() models.ResourceID {
	return d.ID.ResourceID
}

func (d *Connection) GetKind() models.ResourceKind {
	return models.ConnectionResourceKind
}

func (d *Connection) GetCreatedAt() models.Time {
	return d.CreatedAt
}

func (d *Connection) GetETag() models.ETag {
	return d.ETag
}

// CreateConnectionRequest provisions a new connection. ExternalID may be omitted when the piece has a
// naming convention and exactly one project is supplied.
type CreateConnectionRequest struct {
	DisplayName string                  `json:"displayName" validate:"max=255"`
	PieceName   string                  `json:"pieceName" validate:"required,max=255"`
	Type        models.AuthType         `json:"type" validate:"required"`
	Value       *models.ConnectionValue `json:"value" validate:"required"`
	Scope       models.ConnectionScope  `json:"scope"`
	ProjectIDs  []models.ProjectID      `json:"projectIds" validate:"required,min=1,max=100"`
	ExternalID  string                  `json:"externalId" validate:"max=356"`
}

func (d *CreateConnectionRequest) Bind(r *http.Request) error {
	if d.Scope == "" {
		d.Scope = models.ConnectionScopePlatform
	}
	return validateDocument(d)
}

func (d *CreateConnectionRequest) ToConnectionCreate() *models.ConnectionCreate {
	return &models.ConnectionCreate{
		ExternalID:  d.ExternalID,
		DisplayName: d.DisplayName,
		PieceName:   d.PieceName,
		AuthType:    d.Type,
		Scope:       d.Scope,
		ProjectIDs:  d.ProjectIDs,
		Value:       d.Value,
	}
}

// RuntimeConnection is the only representation of a connection that includes its value. It is served
// exclusively to the plugin runtime.
type RuntimeConnection struct {
	*Connection
	Value *models.ConnectionValue `json:"value"`
}

func MakeRuntimeConnection(rctx routes.RequestContext, connection *models.Connection) *RuntimeConnection {
	doc := &RuntimeConnection{
		Connection: MakeConnection(rctx, connection),
		Value:      connection.Value,
	}
	doc.URL = routes.MakeRuntimeConnectionLink(rctx, connection.ExternalID)
	return doc
}
