package documents

import (
	"fmt"
	"net/url"

	"github.com/buildbeaver/connections/common/models"
)

type ListRequest struct {
	models.Pagination
}

func NewListRequest() *ListRequest {
	return &ListRequest{Pagination: models.NewPagination(models.DefaultPaginationLimit, nil)}
}

func (d *ListRequest) GetQuery() url.Values {
	return makePaginationQueryParams(d.Pagination)
}

func (d *ListRequest) FromQuery(values url.Values) error {
	pagination, err := getPaginationFromQueryParams(values)
	if err != nil {
		return fmt.Errorf("error parsing pagination: %w", err)
	}
	d.Pagination = pagination
	return nil
}

func (d *ListRequest) Next(cursor *models.DirectionalCursor) PaginatedRequest {
	d.Cursor = cursor
	return d
}
