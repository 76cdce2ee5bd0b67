package models

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const (
	ConnectionResourceKind ResourceKind = "connection"
	MaxPieceNameLength                  = 255
	// MaxConnectionExternalIDLength leaves room for "<prefix>_<project external id>" at the longest
	// prefix and project external id.
	MaxConnectionExternalIDLength = MaxNamingPrefixLength + len(namingPrefixSeparator) + MaxExternalIDLength
)

type ConnectionID struct {
	ResourceID
}

func NewConnectionID() ConnectionID {
	return ConnectionID{ResourceID: NewResourceID(ConnectionResourceKind)}
}

func ConnectionIDFromResourceID(id ResourceID) ConnectionID {
	return ConnectionID{ResourceID: id}
}

// ParseConnectionID parses a connection id from its string form, checking it identifies a connection.
func ParseConnectionID(str string) (ConnectionID, error) {
	id, err := ParseResourceID(str)
	if err != nil {
		return ConnectionID{}, err
	}
	if id.Kind() != ConnectionResourceKind {
		return ConnectionID{}, fmt.Errorf("error expected %s id but found %s", ConnectionResourceKind, id.Kind())
	}
	return ConnectionIDFromResourceID(id), nil
}

// Connection is a platform-scoped credential record attached to one or more projects.
type Connection struct {
	ID          ConnectionID    `json:"id" goqu:"skipupdate" db:"connection_id"`
	PlatformID  PlatformID      `json:"platform_id" goqu:"skipupdate" db:"connection_platform_id"`
	CreatedAt   Time            `json:"created_at" goqu:"skipupdate" db:"connection_created_at"`
	UpdatedAt   Time            `json:"updated_at" db:"connection_updated_at"`
	ETag        ETag            `json:"etag" db:"connection_etag" hash:"ignore"`
	ExternalID  string          `json:"external_id" goqu:"skipupdate" db:"connection_external_id"`
	DisplayName string          `json:"display_name" db:"connection_display_name"`
	PieceName   string          `json:"piece_name" db:"connection_piece_name"`
	AuthType    AuthType        `json:"type" db:"connection_auth_type"`
	Scope       ConnectionScope `json:"scope" db:"connection_scope"`
	// ProjectIDs are the projects the connection is attached to. Stored in the connection_projects table.
	ProjectIDs []ProjectID `json:"project_ids" db:"-"`
	// ValueEncrypted is the JSON encoded value, encrypted using DataKeyEncrypted.
	ValueEncrypted BinaryBlob `json:"-" db:"connection_value_encrypted"`
	// DataKeyEncrypted is the key that can be used to decrypt ValueEncrypted.
	// This key is itself encrypted and must be decrypted before being used.
	DataKeyEncrypted BinaryBlob `json:"-" db:"connection_data_key_encrypted"`
	// ValueSchemaVersion is the version of the value schema in use when the value was written.
	ValueSchemaVersion int `json:"value_schema_version" db:"connection_value_schema_version"`
	// Value is the decrypted value. It is only populated on the runtime lookup path.
	Value *ConnectionValue `json:"-" db:"-" hash:"ignore"`
}

func NewConnection(now Time, platformID PlatformID, create *ConnectionCreate, valueEncrypted []byte, dataKeyEncrypted []byte) *Connection {
	projectIDs := make([]ProjectID, len(create.ProjectIDs))
	copy(projectIDs, create.ProjectIDs)
	return &Connection{
		ID:                 NewConnectionID(),
		PlatformID:         platformID,
		CreatedAt:          now,
		UpdatedAt:          now,
		ExternalID:         create.ExternalID,
		DisplayName:        create.DisplayName,
		PieceName:          create.PieceName,
		AuthType:           create.AuthType,
		Scope:              create.Scope,
		ProjectIDs:         projectIDs,
		ValueEncrypted:     valueEncrypted,
		DataKeyEncrypted:   dataKeyEncrypted,
		ValueSchemaVersion: ConnectionValueSchemaVersion,
	}
}

func (m *Connection) GetKind() ResourceKind {
	return ConnectionResourceKind
}

func (m *Connection) GetCreatedAt() Time {
	return m.CreatedAt
}

func (m *Connection) GetID() ResourceID {
	return m.ID.ResourceID
}

func (m *Connection) GetUpdatedAt() Time {
	return m.UpdatedAt
}

func (m *Connection) SetUpdatedAt(t Time) {
	m.UpdatedAt = t
}

func (m *Connection) GetETag() ETag {
	return m.ETag
}

func (m *Connection) SetETag(eTag ETag) {
	m.ETag = eTag
}

// IsAttachedTo returns true if the connection is attached to the specified project.
func (m *Connection) IsAttachedTo(projectID ProjectID) bool {
	for _, id := range m.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// Redacted returns a copy of the connection with the decrypted value removed.
func (m *Connection) Redacted() *Connection {
	c := *m
	c.Value = nil
	return &c
}

func (m *Connection) Validate() error {
	var result *multierror.Error
	if !m.ID.Valid() {
		result = multierror.Append(result, errors.New("error id must be set"))
	}
	if err := m.PlatformID.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if m.CreatedAt.IsZero() {
		result = multierror.Append(result, errors.New("error created at must be set"))
	}
	if m.UpdatedAt.IsZero() {
		result = multierror.Append(result, errors.New("error updated at must be set"))
	}
	if err := ValidateConnectionExternalID(m.ExternalID); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validatePieceName(m.PieceName); err != nil {
		result = multierror.Append(result, err)
	}
	if err := m.AuthType.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := m.Scope.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if len(m.ProjectIDs) == 0 {
		result = multierror.Append(result, errors.New("error at least one project id must be set"))
	}
	if m.ValueEncrypted.IsEmpty() {
		result = multierror.Append(result, errors.New("error value must be set"))
	}
	if m.DataKeyEncrypted.IsEmpty() {
		result = multierror.Append(result, errors.New("error data key must be set"))
	}
	if m.ValueSchemaVersion < 1 {
		result = multierror.Append(result, errors.New("error value schema version must be set"))
	}
	return result.ErrorOrNil()
}

// ConnectionCreate holds the caller-supplied fields for a new connection.
type ConnectionCreate struct {
	ExternalID  string
	DisplayName string
	PieceName   string
	AuthType    AuthType
	Scope       ConnectionScope
	ProjectIDs  []ProjectID
	Value       *ConnectionValue
}

// ValidateConnectionExternalID checks a connection external id is usable as a lookup key.
func ValidateConnectionExternalID(externalID string) error {
	return validateExternalID(externalID, MaxConnectionExternalIDLength)
}

// Validate checks the request is well-formed, including that the value matches the declared auth type.
func (m *ConnectionCreate) Validate() error {
	var result *multierror.Error
	if err := ValidateConnectionExternalID(m.ExternalID); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validatePieceName(m.PieceName); err != nil {
		result = multierror.Append(result, err)
	}
	if err := m.AuthType.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := m.Scope.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if len(m.ProjectIDs) == 0 {
		result = multierror.Append(result, errors.New("error at least one project id must be set"))
	}
	seen := make(map[ProjectID]bool, len(m.ProjectIDs))
	for _, id := range m.ProjectIDs {
		if !id.Valid() || id.Kind() != ProjectResourceKind {
			result = multierror.Append(result, fmt.Errorf("error invalid project id %q", id))
		}
		if seen[id] {
			result = multierror.Append(result, fmt.Errorf("error duplicate project id %q", id))
		}
		seen[id] = true
	}
	if m.Value == nil {
		result = multierror.Append(result, errors.New("error value must be set"))
	} else if err := m.Value.ValidateAs(m.AuthType); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func validatePieceName(pieceName string) error {
	if pieceName == "" {
		return errors.New("error piece name must be set")
	}
	if len(pieceName) > MaxPieceNameLength {
		return fmt.Errorf("error piece name must be at most %d characters", MaxPieceNameLength)
	}
	return nil
}
