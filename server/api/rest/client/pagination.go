package client

import (
	"github.com/pkg/errors"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/documents"
)

// cursorFromResponse rebuilds the cursor for the pages either side of a paginated response.
func cursorFromResponse(res *documents.PaginatedResponse) (*models.Cursor, error) {
	if res == nil || (res.PrevCursor == "" && res.NextCursor == "") {
		return nil, nil
	}
	cursor := &models.Cursor{}
	if res.PrevCursor != "" {
		cursor.Prev = &models.DirectionalCursor{}
		if err := cursor.Prev.Decode(res.PrevCursor); err != nil {
			return nil, errors.Wrap(err, "error decoding previous page cursor")
		}
	}
	if res.NextCursor != "" {
		cursor.Next = &models.DirectionalCursor{}
		if err := cursor.Next.Decode(res.NextCursor); err != nil {
			return nil, errors.Wrap(err, "error decoding next page cursor")
		}
	}
	return cursor, nil
}
