package models

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
)

// BinaryBlob holds encrypted bytes such as a connection value or its data key.
// goqu interpolates []byte as text, so the blob is stored hex-encoded and decoded again on scan.
type BinaryBlob []byte

// IsEmpty returns true if the blob holds no bytes.
func (m BinaryBlob) IsEmpty() bool {
	return len(m) == 0
}

func (m *BinaryBlob) Scan(src interface{}) error {
	var encoded string
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte: // postgres bytea
		encoded = string(v)
	case string: // sqlite
		encoded = v
	default:
		return fmt.Errorf("error scanning binary blob: unsupported type %T", src)
	}
	decoded, err := hex.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("error decoding binary blob: %w", err)
	}
	*m = decoded
	return nil
}

func (m BinaryBlob) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return hex.EncodeToString(m), nil
}
