package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a set of free-form string attributes supplied by the host, stored as JSON.
type Metadata map[string]string

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var buf []byte
	switch t := src.(type) {
	case string:
		buf = []byte(t)
	case []byte:
		buf = t
	default:
		return fmt.Errorf("error unsupported type: %[1]T (%[1]v)", src)
	}
	if len(buf) == 0 {
		*m = nil
		return nil
	}
	parsed := Metadata{}
	if err := json.Unmarshal(buf, &parsed); err != nil {
		return fmt.Errorf("error parsing metadata: %w", err)
	}
	*m = parsed
	return nil
}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}
