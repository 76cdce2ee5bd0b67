package encryption

import (
	"context"
	"fmt"
	"strings"
)

// KeyManagerType names a KeyManager implementation selectable from configuration.
type KeyManagerType string

const (
	AWSKeyManagerType   KeyManagerType = "AWS_KMS"
	LocalKeyManagerType KeyManagerType = "LOCAL"
)

var keyManagerTypes = []KeyManagerType{AWSKeyManagerType, LocalKeyManagerType}

func (t KeyManagerType) String() string {
	return string(t)
}

// KeyManagerTypes lists the accepted key manager type names, for flag help.
func KeyManagerTypes() []string {
	names := make([]string, len(keyManagerTypes))
	for i, t := range keyManagerTypes {
		names[i] = t.String()
	}
	return names
}

// ParseKeyManagerType matches str case-insensitively against the known key manager types.
// An empty string selects the local key manager.
func ParseKeyManagerType(str string) (KeyManagerType, error) {
	if str == "" {
		return LocalKeyManagerType, nil
	}
	for _, t := range keyManagerTypes {
		if strings.EqualFold(str, t.String()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("error unsupported key manager type %q (options: %s)", str, strings.Join(KeyManagerTypes(), ", "))
}

// KeyManager issues and unwraps the per-value data keys used for envelope encryption.
// Only the encrypted form of a data key is ever stored.
type KeyManager interface {
	// GenerateDataKey returns a new data key in both plain text and encrypted form.
	GenerateDataKey(ctx context.Context) (dataKeyPlainText *[32]byte, dataKeyEncrypted []byte, err error)
	// DecryptDataKey recovers the plain text of a key returned by GenerateDataKey.
	DecryptDataKey(ctx context.Context, dataKeyEncrypted []byte) (dataKeyPlainText *[32]byte, err error)
}
