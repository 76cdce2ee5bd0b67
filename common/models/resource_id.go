package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const resourceIDSeparator = ":"

// ResourceID is a globally unique identifier for a resource, made up of the resource kind and a UUID,
// e.g. "project:5f1b8c3e-...". The kind prefix allows the type of resource to be determined from the ID alone.
type ResourceID struct {
	kind ResourceKind
	id   uuid.UUID
}

// NewResourceID creates a new unique ResourceID for a resource of the specified kind.
func NewResourceID(kind ResourceKind) ResourceID {
	return ResourceID{kind: kind, id: uuid.New()}
}

// ParseResourceID parses a ResourceID from its string form "kind:uuid".
func ParseResourceID(str string) (ResourceID, error) {
	idx := strings.LastIndex(str, resourceIDSeparator)
	if idx <= 0 || idx == len(str)-1 {
		return ResourceID{}, fmt.Errorf("error invalid resource id %q: expected kind:uuid", str)
	}
	id, err := uuid.Parse(str[idx+1:])
	if err != nil {
		return ResourceID{}, fmt.Errorf("error invalid resource id %q: %w", str, err)
	}
	return ResourceID{kind: ResourceKind(str[:idx]), id: id}, nil
}

func (r ResourceID) Kind() ResourceKind {
	return r.kind
}

func (r ResourceID) IsZero() bool {
	return r.kind == "" && r.id == uuid.Nil
}

// Valid returns true if the ResourceID has both a kind and a non-nil UUID.
func (r ResourceID) Valid() bool {
	return r.kind != "" && r.id != uuid.Nil
}

func (r ResourceID) String() string {
	if r.IsZero() {
		return ""
	}
	return r.kind.String() + resourceIDSeparator + r.id.String()
}

func (r ResourceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *ResourceID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*r = ResourceID{}
		return nil
	}
	parsed, err := ParseResourceID(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r *ResourceID) Scan(src interface{}) error {
	if src == nil {
		*r = ResourceID{}
		return nil
	}
	var str string
	switch t := src.(type) {
	case []uint8:
		str = string(t)
	case string:
		str = t
	default:
		return fmt.Errorf("error unsupported type: %[1]T (%[1]v)", src)
	}
	if str == "" {
		*r = ResourceID{}
		return nil
	}
	parsed, err := ParseResourceID(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r ResourceID) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, nil
	}
	return r.String(), nil
}

func (r ResourceID) Equal(other ResourceID) bool {
	return r.kind == other.kind && r.id == other.id
}
