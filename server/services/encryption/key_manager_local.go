package encryption

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// localMasterKeyInfo binds derived master keys to their use, so the same secret material used for
// another purpose yields a different key.
const localMasterKeyInfo = "connections local key manager master key v1"

type LocalKeyManagerMasterKey *[32]byte

// DeriveLocalMasterKey derives a 256-bit master key from arbitrary length secret material using HKDF-SHA256.
// Use this when the configured master key is a passphrase rather than exactly 32 bytes of key material.
func DeriveLocalMasterKey(secret []byte, salt []byte) (LocalKeyManagerMasterKey, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("error master key secret must not be empty")
	}
	var key [32]byte
	_, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(localMasterKeyInfo)), key[:])
	if err != nil {
		return nil, errors.Wrap(err, "error deriving master key")
	}
	return &key, nil
}

// LocalKeyManager provides an implementation of KeyManager based on an in-memory
// encryption key. This has significant limitations and an HSM-backed external
// provider is preferred.
type LocalKeyManager struct {
	encryptionKey *[32]byte
}

// NewLocalKeyManager creates a LocalKeyManager configured to use the specified
// key. Think very carefully about using this.
func NewLocalKeyManager(encryptionKey LocalKeyManagerMasterKey) *LocalKeyManager {
	return &LocalKeyManager{
		encryptionKey: encryptionKey,
	}
}

// GenerateDataKey generates a unique data key that can be used to encrypt/decrypt
// data. The data key is returned in both a plain text and encrypted format.
func (a *LocalKeyManager) GenerateDataKey(ctx context.Context) (dataKeyPlainText *[32]byte, dataKeyEncrypted []byte, err error) {
	plainTextDataKey := newEncryptionKey()
	encryptedDataKey, err := encrypt(plainTextDataKey[:], a.encryptionKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error encrypting data key")
	}
	return plainTextDataKey, encryptedDataKey, nil
}

// DecryptDataKey decrypts a previously generated data key.
func (a *LocalKeyManager) DecryptDataKey(ctx context.Context, dataKeyEncrypted []byte) (dataKeyPlainText *[32]byte, err error) {
	plainTextDataKey, err := decrypt(dataKeyEncrypted, a.encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "error decrypting data key")
	}
	var dataKey [32]byte
	copy(dataKey[:], plainTextDataKey)
	return &dataKey, nil
}
