package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/api/rest/middleware"
	"github.com/buildbeaver/connections/server/api/rest/routes"
)

type eTagged interface {
	GetETag() models.ETag
}

type APIBase struct {
	logger.Log
	resourceLinker *routes.ResourceLinker
}

func NewAPIBase(resourceLinker *routes.ResourceLinker, logger logger.Log) *APIBase {
	return &APIBase{
		resourceLinker: resourceLinker,
		Log:            logger,
	}
}

// JSON marshals 'v' to JSON, automatically escaping HTML and setting the
// Content-Type as application/json. Copied from chi/render.JSON and updated
// to log serialization errors.
func (a *APIBase) JSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		a.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status, ok := r.Context().Value(render.StatusCtxKey).(int); ok {
		w.WriteHeader(status)
	}
	w.Write(buf.Bytes())
}

// Error writes the specified error to the http response as a standard
// API error document. Errors are sanitized for public display before
// being written. Status code is automatically inferred from the error.
// The error is logged to the server log at a Warning level.
func (a *APIBase) Error(w http.ResponseWriter, r *http.Request, err error) {
	a.Warnf("Error in API call: %v", err)
	a.ErrorNotLogged(w, r, err)
}

// ErrorNotLogged writes the specified error to the http response as a standard
// API error document. The error is not logged to the server log.
func (a *APIBase) ErrorNotLogged(w http.ResponseWriter, r *http.Request, err error) {
	// Look down through the chain of wrapped errors, including errors wrapped using fmt.Errorf(), and
	// find the first error which is a gerror.Error
	var gErr gerror.Error
	if !errors.As(err, &gErr) || gErr.Audience() != gerror.AudienceExternal {
		gErr = gerror.NewErrInternal()
	}
	doc := &documents.ErrorDocument{
		Code:           gErr.Code(),
		HTTPStatusCode: gErr.HTTPStatusCode(),
		Message:        gErr.Message(),
		Details:        make(map[gerror.DetailKey]interface{}),
	}
	for _, detail := range gErr.Details() {
		if detail.Audience() == gerror.AudienceExternal {
			doc.Details[detail.Key()] = detail.Value()
		}
	}
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, gErr.HTTPStatusCode()))
	a.JSON(w, r, doc)
}

// Created writes a standardized created response to the http response object.
// The ID, Location and ETag headers will be set if corresponding arguments are specified,
// and data (if set) will be serialized to JSON and written in the response body.
func (a *APIBase) Created(w http.ResponseWriter, r *http.Request, id string, location string, eTag models.ETag, data interface{}) {
	if eTag != "" {
		w.Header().Set("ETag", eTag.String())
	}
	if id != "" {
		w.Header().Set("Id", id)
	}
	if location != "" {
		w.Header().Set("Location", location)
	}
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, http.StatusCreated))
	if data != nil {
		a.JSON(w, r, data)
	}
}

// GotResource writes a standardized resource response to the http response object and is intended to be
// used in response to a GET request.
func (a *APIBase) GotResource(w http.ResponseWriter, r *http.Request, resource documents.ResourceDocument) {
	if tagged, ok := resource.(eTagged); ok {
		w.Header().Set("ETag", tagged.GetETag().String())
	}
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, http.StatusOK))
	a.JSON(w, r, resource)
}

// CreatedResource writes a standardized resource created response to the http response object and is
// intended to be used in response to a POST request.
func (a *APIBase) CreatedResource(w http.ResponseWriter, r *http.Request, resource documents.ResourceDocument) {
	var eTag models.ETag
	if tagged, ok := resource.(eTagged); ok {
		eTag = tagged.GetETag()
	}
	a.Created(w, r, resource.GetID().String(), resource.GetLink(), eTag, resource)
}

// NoContent writes an empty 204 response.
func (a *APIBase) NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// MustAuthenticationMeta returns information about the currently authenticated caller from the request.
// If the request is not authenticated then this panics.
func (a *APIBase) MustAuthenticationMeta(r *http.Request) *middleware.AuthenticationMeta {
	meta := middleware.AuthenticationMetaFromContext(r.Context())
	if meta == nil {
		panic("Request is not authenticated")
	}
	return meta
}

// PlatformID returns the platform the authenticated caller acts within.
func (a *APIBase) PlatformID(r *http.Request) models.PlatformID {
	return a.MustAuthenticationMeta(r).PlatformID
}

// ResourceID returns the leaf resource id from the url of the request. An invalid id is reported as not found.
func (a *APIBase) ResourceID(r *http.Request) (models.ResourceID, error) {
	id, err := a.resourceLinker.GetLeafResourceID(r)
	if err != nil {
		return models.ResourceID{}, gerror.NewErrNotFound("Not Found").Wrap(err)
	}
	return id, nil
}

// ProjectID returns the leaf resource id from the url of the request as a ProjectID.
func (a *APIBase) ProjectID(r *http.Request) (models.ProjectID, error) {
	id, err := a.ResourceID(r)
	if err != nil {
		return models.ProjectID{}, err
	}
	return models.ProjectIDFromResourceID(id), nil
}

// ConnectionID returns the leaf resource id from the url of the request as a ConnectionID.
func (a *APIBase) ConnectionID(r *http.Request) (models.ConnectionID, error) {
	id, err := a.ResourceID(r)
	if err != nil {
		return models.ConnectionID{}, err
	}
	return models.ConnectionIDFromResourceID(id), nil
}

// Bind decodes and validates the request body into v. Malformed bodies are reported as validation failures.
func (a *APIBase) Bind(r *http.Request, v render.Binder) error {
	err := render.Bind(r, v)
	if err != nil {
		var gErr gerror.Error
		if errors.As(err, &gErr) {
			return err
		}
		return gerror.NewErrValidationFailed("Invalid request body").Wrap(err)
	}
	return nil
}
