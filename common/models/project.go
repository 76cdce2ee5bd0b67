package models

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const (
	ProjectResourceKind ResourceKind = "project"
	// MaxExternalIDLength is the longest external id accepted for projects.
	MaxExternalIDLength = 255
)

type ProjectID struct {
	ResourceID
}

func NewProjectID() ProjectID {
	return ProjectID{ResourceID: NewResourceID(ProjectResourceKind)}
}

func ProjectIDFromResourceID(id ResourceID) ProjectID {
	return ProjectID{ResourceID: id}
}

// ParseProjectID parses a project id from its string form, checking it identifies a project.
func ParseProjectID(str string) (ProjectID, error) {
	id, err := ParseResourceID(str)
	if err != nil {
		return ProjectID{}, err
	}
	if id.Kind() != ProjectResourceKind {
		return ProjectID{}, fmt.Errorf("error expected %s id but found %s", ProjectResourceKind, id.Kind())
	}
	return ProjectIDFromResourceID(id), nil
}

// ProjectData is the host-supplied portion of a project.
type ProjectData struct {
	// ExternalID is the tenant identifier owned by the host. It is unique within a platform and immutable.
	ExternalID  string   `json:"external_id" db:"project_external_id"`
	DisplayName string   `json:"display_name" db:"project_display_name"`
	Metadata    Metadata `json:"metadata" db:"project_metadata"`
}

func (m *ProjectData) Validate() error {
	var result *multierror.Error
	if err := ValidateExternalID(m.ExternalID); err != nil {
		result = multierror.Append(result, err)
	}
	if len(m.DisplayName) > MaxExternalIDLength {
		result = multierror.Append(result, fmt.Errorf("error display name must be at most %d characters", MaxExternalIDLength))
	}
	return result.ErrorOrNil()
}

type Project struct {
	ID         ProjectID  `json:"id" goqu:"skipupdate" db:"project_id"`
	PlatformID PlatformID `json:"platform_id" goqu:"skipupdate" db:"project_platform_id"`
	CreatedAt  Time       `json:"created_at" goqu:"skipupdate" db:"project_created_at"`
	UpdatedAt  Time       `json:"updated_at" db:"project_updated_at"`
	ETag       ETag       `json:"etag" db:"project_etag" hash:"ignore"`
	ProjectData
}

func NewProject(now Time, platformID PlatformID, data ProjectData) *Project {
	if data.Metadata == nil {
		data.Metadata = Metadata{}
	}
	return &Project{
		ID:          NewProjectID(),
		PlatformID:  platformID,
		CreatedAt:   now,
		UpdatedAt:   now,
		ProjectData: data,
	}
}

func (m *Project) GetKind() ResourceKind {
	return ProjectResourceKind
}

func (m *Project) GetCreatedAt() Time {
	return m.CreatedAt
}

func (m *Project) GetID() ResourceID {
	return m.ID.ResourceID
}

func (m *Project) GetUpdatedAt() Time {
	return m.UpdatedAt
}

func (m *Project) SetUpdatedAt(t Time) {
	m.UpdatedAt = t
}

func (m *Project) GetETag() ETag {
	return m.ETag
}

func (m *Project) SetETag(eTag ETag) {
	m.ETag = eTag
}

func (m *Project) Validate() error {
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
	if err := m.ProjectData.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// ValidateExternalID checks a project external id is usable as a lookup key.
func ValidateExternalID(externalID string) error {
	return validateExternalID(externalID, MaxExternalIDLength)
}

func validateExternalID(externalID string, maxLength int) error {
	if externalID == "" {
		return errors.New("error external id must be set")
	}
	if len(externalID) > maxLength {
		return fmt.Errorf("error external id must be at most %d characters", maxLength)
	}
	return nil
}

// ProjectSearch filters a list of projects.
type ProjectSearch struct {
	// ExternalID restricts results to the project with this external id, if set.
	ExternalID *string
}
