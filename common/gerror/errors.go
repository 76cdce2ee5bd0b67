package gerror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeInternal              Code = "Internal"
	ErrCodeValidationFailed      Code = "ValidationFailed"
	ErrCodeInvalidQueryParameter Code = "InvalidQueryParameter"
	ErrCodeNotFound              Code = "NotFound"
	ErrCodeConnectionNotFound    Code = "ConnectionNotFound"
	ErrCodeMissingTenantIdentity Code = "MissingTenantIdentity"
	ErrCodeUnauthorized          Code = "Unauthorized"
	ErrCodeAlreadyExists         Code = "AlreadyExists"
	ErrCodeTransport             Code = "Transport"
	ErrHttpOperationFailed       Code = "HttpOperationFailed"
)

// DetailExternalID is the detail key used to name the external identifier an error relates to.
const DetailExternalID DetailKey = "external_id"

// ToError locates an Error in the provided error chain and returns it if it
// matches the provided code. Otherwise, returns nil.
func ToError(err error, code Code) *Error {
	if err == nil {
		return nil
	}
	var gErr Error
	if errors.As(err, &gErr) && gErr.Code() == code {
		return &gErr
	}
	return nil
}

func NewErrInternal() Error {
	return NewError(
		"An internal server error occurred",
		AudienceExternal,
		ErrCodeInternal,
		http.StatusInternalServerError,
		nil,
	)
}

func ToInternal(err error) *Error {
	return ToError(err, ErrCodeInternal)
}

func IsInternal(err error) bool {
	return ToInternal(err) != nil
}

func NewErrValidationFailed(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeValidationFailed, http.StatusBadRequest, nil)
}

func ToValidationFailed(err error) *Error {
	return ToError(err, ErrCodeValidationFailed)
}

func IsValidationFailed(err error) bool {
	return ToValidationFailed(err) != nil
}

func NewErrInvalidQueryParameter(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeInvalidQueryParameter, http.StatusBadRequest, nil)
}

func ToInvalidQueryParameter(err error) *Error {
	return ToError(err, ErrCodeInvalidQueryParameter)
}

func IsInvalidQueryParameter(err error) bool {
	return ToInvalidQueryParameter(err) != nil
}

func NewErrNotFound(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeNotFound, http.StatusNotFound, nil)
}

func ToNotFound(err error) *Error {
	return ToError(err, ErrCodeNotFound)
}

func IsNotFound(err error) bool {
	return ToNotFound(err) != nil
}

// NewErrConnectionNotFound is returned when a plugin invocation cannot resolve a predefined connection.
// It is terminal for the invocation: the connection was never provisioned.
func NewErrConnectionNotFound(externalConnectionID string) Error {
	return NewError(
		fmt.Sprintf("No connection found with external id %q; it must be provisioned before it can be used", externalConnectionID),
		AudienceExternal,
		ErrCodeConnectionNotFound,
		http.StatusNotFound,
		nil,
	).EDetail(DetailExternalID, externalConnectionID)
}

func ToConnectionNotFound(err error) *Error {
	return ToError(err, ErrCodeConnectionNotFound)
}

func IsConnectionNotFound(err error) bool {
	return ToConnectionNotFound(err) != nil
}

func NewErrMissingTenantIdentity() Error {
	return NewError(
		"No project external id was supplied for this invocation; cannot resolve a predefined connection",
		AudienceExternal,
		ErrCodeMissingTenantIdentity,
		http.StatusBadRequest,
		nil,
	)
}

func ToMissingTenantIdentity(err error) *Error {
	return ToError(err, ErrCodeMissingTenantIdentity)
}

func IsMissingTenantIdentity(err error) bool {
	return ToMissingTenantIdentity(err) != nil
}

func NewErrUnauthorized(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeUnauthorized, http.StatusUnauthorized, nil)
}

func ToUnauthorized(err error) *Error {
	return ToError(err, ErrCodeUnauthorized)
}

func IsUnauthorized(err error) bool {
	return ToUnauthorized(err) != nil
}

func NewErrAlreadyExists(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeAlreadyExists, http.StatusConflict, nil)
}

func ToAlreadyExists(err error) *Error {
	return ToError(err, ErrCodeAlreadyExists)
}

func IsAlreadyExists(err error) bool {
	return ToAlreadyExists(err) != nil
}

// NewErrTransport is returned when the backing store or the connections API could not be reached,
// or did not answer before the caller's deadline. Retry policy belongs to the caller.
func NewErrTransport(description string, inner error) Error {
	return NewError("Transport error: "+description, AudienceExternal, ErrCodeTransport, http.StatusServiceUnavailable, inner)
}

func ToTransport(err error) *Error {
	return ToError(err, ErrCodeTransport)
}

func IsTransport(err error) bool {
	return ToTransport(err) != nil
}
