package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/documents"
)

type paginatedConnectionResponse struct {
	*documents.PaginatedResponse
	Results []*documents.Connection `json:"results"`
}

// CreateConnection provisions a connection. Returns gerror.ErrAlreadyExists if the external id is taken.
func (a *APIClient) CreateConnection(ctx context.Context, req *documents.CreateConnectionRequest) (*documents.Connection, error) {
	code, _, body, err := a.post(ctx, nil, "/api/v1/global-connections", req)
	if err != nil {
		return nil, err
	}
	if !a.isOneOf(code, []int{http.StatusCreated}) {
		return nil, a.makeHTTPError(code, body)
	}
	doc := &documents.Connection{}
	err = a.parseBody(body, doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (a *APIClient) GetConnection(ctx context.Context, connectionID models.ConnectionID) (*documents.Connection, error) {
	code, _, body, err := a.get(ctx, nil, fmt.Sprintf("/api/v1/global-connections/%s", url.PathEscape(connectionID.String())))
	if err != nil {
		return nil, err
	}
	if !a.isOneOf(code, []int{http.StatusOK}) {
		return nil, a.makeHTTPError(code, body)
	}
	doc := &documents.Connection{}
	err = a.parseBody(body, doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (a *APIClient) DeleteConnection(ctx context.Context, connectionID models.ConnectionID) error {
	code, _, body, err := a.delete(ctx, nil, fmt.Sprintf("/api/v1/global-connections/%s", url.PathEscape(connectionID.String())))
	if err != nil {
		return err
	}
	if !a.isOneOf(code, []int{http.StatusNoContent, http.StatusOK}) {
		return a.makeHTTPError(code, body)
	}
	return nil
}

// ListProjectConnections lists one page of the connections attached to a project.
func (a *APIClient) ListProjectConnections(ctx context.Context, projectID models.ProjectID, req *documents.ListRequest) ([]*documents.Connection, *models.Cursor, error) {
	if req == nil {
		req = documents.NewListRequest()
	}
	u := documents.AddQueryParams(fmt.Sprintf("/api/v1/projects/%s/global-connections", url.PathEscape(projectID.String())), req)
	code, _, body, err := a.get(ctx, nil, u.String())
	if err != nil {
		return nil, nil, err
	}
	if !a.isOneOf(code, []int{http.StatusOK}) {
		return nil, nil, a.makeHTTPError(code, body)
	}
	doc := &paginatedConnectionResponse{}
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

// GetRuntimeConnection reads a connection including its value, on behalf of the project with the
// supplied external id. Returns gerror.ErrConnectionNotFound if the connection does not exist or is not
// attached to the project.
func (a *APIClient) GetRuntimeConnection(ctx context.Context, externalConnectionID string, projectExternalID string) (*documents.RuntimeConnection, error) {
	query := url.Values{}
	if projectExternalID != "" {
		query.Set("projectExternalId", projectExternalID)
	}
	path := fmt.Sprintf("/api/v1/runtime/connections/%s?%s", url.PathEscape(externalConnectionID), query.Encode())
	code, _, body, err := a.get(ctx, nil, path)
	if err != nil {
		return nil, err
	}
	if !a.isOneOf(code, []int{http.StatusOK}) {
		return nil, a.makeHTTPError(code, body)
	}
	doc := &documents.RuntimeConnection{}
	err = a.parseBody(body, doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
