package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/documents"
)

type paginatedProjectResponse struct {
	*documents.PaginatedResponse
	Results []*documents.Project `json:"results"`
}

// GetOrCreateProject returns the project with the requested external id, creating it if it does not
// exist. Returns true iff the project was created by this call.
func (a *APIClient) GetOrCreateProject(ctx context.Context, req *documents.CreateProjectRequest) (*documents.Project, bool, error) {
	code, _, body, err := a.post(ctx, nil, "/api/v1/projects", req)
	if err != nil {
		return nil, false, err
	}
	if !a.isOneOf(code, []int{http.StatusOK, http.StatusCreated}) {
		return nil, false, a.makeHTTPError(code, body)
	}
	doc := &documents.Project{}
	err = a.parseBody(body, doc)
	if err != nil {
		return nil, false, err
	}
	return doc, code == http.StatusCreated, nil
}

func (a *APIClient) GetProject(ctx context.Context, projectID models.ProjectID) (*documents.Project, error) {
	code, _, body, err := a.get(ctx, nil, fmt.Sprintf("/api/v1/projects/%s", url.PathEscape(projectID.String())))
	if err != nil {
		return nil, err
	}
	if !a.isOneOf(code, []int{http.StatusOK}) {
		return nil, a.makeHTTPError(code, body)
	}
	doc := &documents.Project{}
	err = a.parseBody(body, doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListProjects lists one page of projects. Use the returned cursor with req.Next to fetch further pages.
func (a *APIClient) ListProjects(ctx context.Context, req *documents.ProjectListRequest) ([]*documents.Project, *models.Cursor, error) {
	u := documents.AddQueryParams("/api/v1/projects", req)
	code, _, body, err := a.get(ctx, nil, u.String())
	if err != nil {
		return nil, nil, err
	}
	if !a.isOneOf(code, []int{http.StatusOK}) {
		return nil, nil, a.makeHTTPError(code, body)
	}
	doc := &paginatedProjectResponse{}
	err = a.parseBody(body, doc)
	if err != nil {
		return nil, nil, err
	}
	cursor, err := cursorFromResponse(doc.PaginatedResponse)
	if err != nil {
		return nil, nil, err
	}
	return doc.Results, cursor, nil
}

// FindProjectByExternalID returns the project with the supplied external id.
// Returns gerror.ErrNotFound if no such project exists.
func (a *APIClient) FindProjectByExternalID(ctx context.Context, externalID string) (*documents.Project, error) {
	req := documents.NewProjectListRequest()
	req.ExternalID = externalID
	projects, _, err := a.ListProjects(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, gerror.NewErrNotFound(fmt.Sprintf("Project with external id %q not found", externalID)).
			EDetail(gerror.DetailExternalID, externalID)
	}
	return projects[0], nil
}
