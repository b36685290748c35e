package controllers

import (
	"net/http"
	"strings"

	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
)

type pageResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func page(items any, next *pagination.Cursor) pageResponse {
	resp := pageResponse{Items: items}
	if next != nil {
		resp.NextCursor = pagination.EncodeCursor(*next)
	}
	return resp
}

func cursorFromQuery(r *http.Request) (*pagination.Cursor, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("cursor"))
	if raw == "" {
		return nil, nil
	}
	cursor, err := pagination.ParseCursor(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}
