package models

import (
	"encoding/base64"
	"encoding/json"
)

const (
	DefaultPaginationLimit = 30
	MaxPaginationLimit     = 100
)

type Pagination struct {
	// Limit is the maximum number of results to return.
	Limit int `json:"limit"`
	// Cursor is an opaque value used to retrieve the next set of results.
	Cursor *DirectionalCursor `json:"cursor"`
}

func NewPagination(limit int, cursor *DirectionalCursor) Pagination {
	if limit < 1 || limit > MaxPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return Pagination{
		Limit:  limit,
		Cursor: cursor,
	}
}

const (
	CursorDirectionPrev CursorDirection = "p"
	CursorDirectionNext CursorDirection = "n"
)

type CursorDirection string

// Cursor holds the cursors for the pages either side of a page of results.
type Cursor struct {
	Prev *DirectionalCursor
	Next *DirectionalCursor
}

type DirectionalCursor struct {
	Direction CursorDirection `json:"d"`
	Marker    string          `json:"m"`
}

func (m *DirectionalCursor) Decode(str string) error {
	if str == "" {
		return nil
	}
	buf, err := base64.URLEncoding.DecodeString(str)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, m)
}

func (m *DirectionalCursor) Encode() (string, error) {
	buf, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
