package gerror

import (
	"fmt"
	"sort"
	"strings"
)

// Audience controls whether an error (or one of its details) may be shown to API callers.
type Audience string

const (
	AudienceInternal Audience = "internal"
	AudienceExternal Audience = "external"
)

type (
	Code      string
	DetailKey string
	Details   map[DetailKey]Detail
)

// Error is an immutable error carrying a code and HTTP status for the API layer.
// The builder methods (Wrap, EDetail, IDetail) all return modified copies.
type Error struct {
	code           Code
	httpStatusCode int
	audience       Audience
	// message is safe to show to the caller. Error() adds details and the inner chain for logs.
	message string
	details Details
	inner   error
}

func NewError(message string, audience Audience, code Code, httpStatusCode int, inner error) Error {
	return NewErrorWithDetails(message, nil, audience, code, httpStatusCode, inner)
}

func NewErrorWithDetails(message string, details Details, audience Audience, code Code, httpStatusCode int, inner error) Error {
	return Error{
		code:           code,
		httpStatusCode: httpStatusCode,
		audience:       audience,
		message:        message,
		details:        details,
		inner:          inner,
	}
}

// Error renders "message [k=v, ...]: inner" with detail keys in sorted order.
func (e Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.message)
	if len(e.details) > 0 {
		keys := make([]string, 0, len(e.details))
		for k := range e.details {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		sb.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.details[DetailKey(k)].value)
		}
		sb.WriteString("]")
	}
	if e.inner != nil {
		sb.WriteString(": ")
		sb.WriteString(e.inner.Error())
	}
	return sb.String()
}

func (e Error) Unwrap() error {
	return e.inner
}

func (e Error) Message() string {
	return e.message
}

// Details returns a copy of the error's details.
func (e Error) Details() Details {
	out := make(Details, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

func (e Error) Audience() Audience {
	return e.audience
}

func (e Error) Code() Code {
	return e.code
}

func (e Error) HTTPStatusCode() int {
	return e.httpStatusCode
}

// Wrap returns a copy of the error with err as its inner error.
func (e Error) Wrap(err error) Error {
	e.details = e.Details()
	e.inner = err
	return e
}

// EDetail returns a copy of the error with a detail that is returned to API callers.
func (e Error) EDetail(key DetailKey, value interface{}) Error {
	return e.withDetail(NewDetail(AudienceExternal, key, value))
}

// IDetail returns a copy of the error with a detail that only appears in logs.
func (e Error) IDetail(key DetailKey, value interface{}) Error {
	return e.withDetail(NewDetail(AudienceInternal, key, value))
}

func (e Error) withDetail(detail Detail) Error {
	e.details = e.Details()
	e.details[detail.key] = detail
	return e
}

type Detail struct {
	audience Audience
	key      DetailKey
	value    interface{}
}

func NewDetail(audience Audience, key DetailKey, value interface{}) Detail {
	return Detail{audience: audience, key: key, value: value}
}

func (d Detail) Audience() Audience {
	return d.audience
}

func (d Detail) Key() DetailKey {
	return d.key
}

func (d Detail) Value() interface{} {
	return d.value
}
