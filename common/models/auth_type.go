package models

import (
	"database/sql/driver"
	"fmt"
)

// AuthType tags the shape of a connection value. The set is closed: every AuthType has exactly one
// validator registered in connectionValueValidators.
type AuthType string

const (
	AuthTypeOAuth2         AuthType = "OAUTH2"
	AuthTypePlatformOAuth2 AuthType = "PLATFORM_OAUTH2"
	AuthTypeSecretText     AuthType = "SECRET_TEXT"
	AuthTypeBasicAuth      AuthType = "BASIC_AUTH"
	AuthTypeCustomAuth     AuthType = "CUSTOM_AUTH"
)

// AuthTypes lists every supported auth type.
var AuthTypes = []AuthType{
	AuthTypeOAuth2,
	AuthTypePlatformOAuth2,
	AuthTypeSecretText,
	AuthTypeBasicAuth,
	AuthTypeCustomAuth,
}

func (a AuthType) String() string {
	return string(a)
}

func (a AuthType) Valid() bool {
	_, ok := connectionValueValidators[a]
	return ok
}

func (a AuthType) Validate() error {
	if !a.Valid() {
		return fmt.Errorf("error unsupported auth type %q; expected one of %v", string(a), AuthTypes)
	}
	return nil
}

func (a *AuthType) Scan(src interface{}) error {
	if src == nil {
		*a = ""
		return nil
	}
	switch t := src.(type) {
	case string:
		*a = AuthType(t)
	case []byte:
		*a = AuthType(t)
	default:
		return fmt.Errorf("error expected string: %#v", src)
	}
	return nil
}

func (a AuthType) Value() (driver.Value, error) {
	return string(a), nil
}

// ConnectionScope determines who manages a connection.
type ConnectionScope string

const (
	// ConnectionScopePlatform connections are provisioned by the platform (host) on behalf of its projects.
	ConnectionScopePlatform ConnectionScope = "PLATFORM"
	// ConnectionScopeProject connections are created by a project's own users.
	ConnectionScopeProject ConnectionScope = "PROJECT"
)

func (s ConnectionScope) String() string {
	return string(s)
}

func (s ConnectionScope) Validate() error {
	switch s {
	case ConnectionScopePlatform, ConnectionScopeProject:
		return nil
	default:
		return fmt.Errorf("error unsupported connection scope %q", string(s))
	}
}

func (s *ConnectionScope) Scan(src interface{}) error {
	if src == nil {
		*s = ""
		return nil
	}
	switch t := src.(type) {
	case string:
		*s = ConnectionScope(t)
	case []byte:
		*s = ConnectionScope(t)
	default:
		return fmt.Errorf("error expected string: %#v", src)
	}
	return nil
}

func (s ConnectionScope) Value() (driver.Value, error) {
	return string(s), nil
}
