package credential_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/services/credential"
)

const testSigningKey = "abcdefghijklmnopqrstuvwxyz123456"

func newTestService(t *testing.T, key string) *credential.CredentialService {
	logRegistry, err := logger.NewLogRegistry("")
	require.NoError(t, err)
	service, err := credential.NewCredentialService(
		credential.JWTConfig{SigningKey: []byte(key)},
		clock.New(),
		logger.MakeLogrusLogFactoryStdOut(logRegistry))
	require.NoError(t, err)
	return service
}

func TestCredentials(t *testing.T) {
	service := newTestService(t, testSigningKey)
	platformID := models.PlatformID("gelato-host")

	t.Run("JWT Credential", testJWTCredential(service, platformID))
	t.Run("JWT Credential Expiry", testJWTCredentialExpiry(service, platformID))
	t.Run("JWT Credential Wrong Key", testJWTCredentialWrongKey(service, platformID))
	t.Run("JWT Credential Invalid Platform", testJWTCredentialInvalidPlatform(service))
}

func testJWTCredential(service *credential.CredentialService, platformID models.PlatformID) func(t *testing.T) {
	return func(t *testing.T) {
		tokenStr, err := service.CreatePlatformJWT(platformID)
		require.NoError(t, err, "Error creating JWT credential")

		platformReadBack, err := service.VerifyPlatformJWT(tokenStr)
		assert.NoError(t, err, "Error verifying JWT credential")
		assert.Equal(t, platformID, platformReadBack)
	}
}

func testJWTCredentialExpiry(service *credential.CredentialService, platformID models.PlatformID) func(t *testing.T) {
	return func(t *testing.T) {
		// Use a negative expiry duration so the JWT is already expired
		tokenStr, err := service.CreatePlatformJWTWithExpiry(platformID, -1*time.Minute)
		require.NoError(t, err, "Error creating JWT credential")

		_, err = service.VerifyPlatformJWT(tokenStr)
		assert.Error(t, err, "Expected an error verifying expired JWT credential")
	}
}

func testJWTCredentialWrongKey(service *credential.CredentialService, platformID models.PlatformID) func(t *testing.T) {
	return func(t *testing.T) {
		// Create a credential directly using the util, signed with the 'wrong' key
		tokenStr, _, err := credential.CreatePlatformJWT(
			platformID,
			credential.DefaultJWTIssuer,
			time.Now(),
			credential.DefaultJWTExpiryDuration,
			[]byte("zyxwvutsrqponmlkjihgfedcba654321"))
		require.NoError(t, err, "Error creating JWT credential")

		_, err = service.VerifyPlatformJWT(tokenStr)
		assert.Error(t, err, "Expected an error verifying JWT credential signed with the wrong key")
	}
}

func testJWTCredentialInvalidPlatform(service *credential.CredentialService) func(t *testing.T) {
	return func(t *testing.T) {
		_, err := service.CreatePlatformJWT("not a platform!")
		assert.Error(t, err)
	}
}

func TestSigningKeyTooShort(t *testing.T) {
	logRegistry, err := logger.NewLogRegistry("")
	require.NoError(t, err)
	_, err = credential.NewCredentialService(
		credential.JWTConfig{SigningKey: []byte("short")},
		clock.New(),
		logger.MakeLogrusLogFactoryStdOut(logRegistry))
	require.Error(t, err)
}
