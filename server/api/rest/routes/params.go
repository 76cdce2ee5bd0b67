package routes

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// StringParam extracts a non-empty, unescaped string from the url parameters on the supplied request.
func StringParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if raw == "" {
		return "", fmt.Errorf("error %q param does not exist", key)
	}
	// This is required to support clients that escape colons in IDs
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", errors.Wrapf(err, "error unescaping %q param", key)
	}
	return value, nil
}
