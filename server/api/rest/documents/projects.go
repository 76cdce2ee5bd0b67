package documents

import (
	"net/http"
	"net/url"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/routes"
)

type Project struct {
	baseResourceDocument

	ID          models.ProjectID  `json:"id"`
	CreatedAt   models.Time       `json:"createdAt"`
	UpdatedAt   models.Time       `json:"updatedAt"`
	ETag        models.ETag       `json:"etag"`
	PlatformID  models.PlatformID `json:"platformId"`
	ExternalID  string            `json:"externalId"`
	DisplayName string            `json:"displayName"`
	Metadata    models.Metadata   `json:"metadata"`

	GlobalConnectionsURL string `json:"globalConnectionsUrl"`
}

func MakeProject(rctx routes.RequestContext, project *models.Project) *Project {
	return &Project{
		baseResourceDocument: baseResourceDocument{
			URL: routes.MakeProjectLink(rctx, project.ID),
		},
		ID:          project.ID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		ETag:        project.ETag,
		PlatformID:  project.PlatformID,
		ExternalID:  project.ExternalID,
		DisplayName: project.DisplayName,
		Metadata:    project.Metadata,

		GlobalConnectionsURL: routes.MakeProjectConnectionsLink(rctx, project.ID),
	}
}

func MakeProjects(rctx routes.RequestContext, projects []*models.Project) []*Project {
	docs := make([]*Project, 0, len(projects))
	for _, project := range projects {
		docs = append(docs, MakeProject(rctx, project))
	}
	return docs
}

func (d *Project) GetID() models.ResourceID {
	return d.ID.ResourceID
}

func (d *Project) GetKind() models.ResourceKind {
	return models.ProjectResourceKind
}

func (d *Project) GetCreatedAt() models.Time {
	return d.CreatedAt
}

func (d *Project) GetETag() models.ETag {
	return d.ETag
}

// CreateProjectRequest asks for the project with the supplied external id, creating it if it does not exist.
type CreateProjectRequest struct {
	DisplayName string            `json:"displayName" validate:"max=255"`
	ExternalID  string            `json:"externalId" validate:"required,max=255"`
	Metadata    map[string]string `json:"metadata" validate:"max=64,dive,keys,max=128,endkeys,max=1024"`
}

func (d *CreateProjectRequest) Bind(r *http.Request) error {
	return validateDocument(d)
}

func (d *CreateProjectRequest) ToProjectData() *models.ProjectData {
	return &models.ProjectData{
		ExternalID:  d.ExternalID,
		DisplayName: d.DisplayName,
		Metadata:    d.Metadata,
	}
}

// ProjectListRequest lists projects, optionally restricted to the project with an external id.
type ProjectListRequest struct {
	ListRequest
	ExternalID string
}

func NewProjectListRequest() *ProjectListRequest {
	return &ProjectListRequest{ListRequest: *NewListRequest()}
}

func (d *ProjectListRequest) GetQuery() url.Values {
	values := d.ListRequest.GetQuery()
	if d.ExternalID != "" {
		values.Set("externalId", d.ExternalID)
	}
	return values
}

func (d *ProjectListRequest) FromQuery(values url.Values) error {
	err := d.ListRequest.FromQuery(values)
	if err != nil {
		return err
	}
	d.ExternalID = values.Get("externalId")
	return nil
}

func (d *ProjectListRequest) Next(cursor *models.DirectionalCursor) PaginatedRequest {
	d.Cursor = cursor
	return d
}

func (d *ProjectListRequest) ToSearch() *models.ProjectSearch {
	if d.ExternalID == "" {
		return nil
	}
	externalID := d.ExternalID
	return &models.ProjectSearch{ExternalID: &externalID}
}
