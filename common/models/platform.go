package models

import (
	"database/sql/driver"
	"fmt"
	"regexp"
)

// DefaultPlatformID is the platform used when the caller is not bound to a platform, e.g. when
// authenticating with the shared secret.
const DefaultPlatformID PlatformID = "default"

var platformIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_\-\.]{0,99}$`)

// PlatformID identifies the embedding host (platform) that owns a set of projects and connections.
// External ids are unique within a platform.
type PlatformID string

func (s PlatformID) String() string {
	return string(s)
}

func (s PlatformID) Validate() error {
	if !platformIDRegex.MatchString(string(s)) {
		return fmt.Errorf("error platform id %q must be 1-100 characters of letters, numbers, '_', '-' or '.'", string(s))
	}
	return nil
}

func (s *PlatformID) Scan(src interface{}) error {
	if src == nil {
		*s = ""
		return nil
	}
	switch t := src.(type) {
	case string:
		*s = PlatformID(t)
	case []byte:
		*s = PlatformID(t)
	default:
		return fmt.Errorf("error expected string: %#v", src)
	}
	return nil
}

func (s PlatformID) Value() (driver.Value, error) {
	return string(s), nil
}
