package server_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/server"
	"github.com/buildbeaver/connections/server/app"
	"github.com/buildbeaver/connections/server/services/authentication"
	"github.com/buildbeaver/connections/server/services/credential"
	"github.com/buildbeaver/connections/server/services/encryption"
)

const (
	// TestSharedSecret is accepted by the test server's shared secret authenticator.
	TestSharedSecret = "test-shared-secret-0123456789"
	// TestConventionPieceName is the piece registered in the test server's naming conventions.
	TestConventionPieceName = "@activepieces/piece-gelato"
	// TestConventionPrefix is the prefix registered for TestConventionPieceName.
	TestConventionPrefix models.NamingPrefix = "gelato-conv"
)

const testConventionsFileTemplate = `conventions:
  - piece_name: %q
    prefix: %q
    auth_type: SECRET_TEXT
`

func TestConfig(t *testing.T) *app.ServerConfig {
	// Create a temp directory for configuration
	configDir := t.TempDir()

	conventionsFile := filepath.Join(configDir, "naming-conventions.yaml")
	conventions := fmt.Sprintf(testConventionsFileTemplate, TestConventionPieceName, TestConventionPrefix)
	err := os.WriteFile(conventionsFile, []byte(conventions), 0600)
	require.NoError(t, err)

	test256bitKeyStr := "abcdefghijklmnopqrstuvwxyz123456"
	var test256bitKey [32]byte
	copy(test256bitKey[:], test256bitKeyStr)

	return &app.ServerConfig{
		EncryptionConfig: app.EncryptionConfig{
			KeyManagerType:           encryption.LocalKeyManagerType.String(),
			LocalKeyManagerMasterKey: &test256bitKey,
		},
		CoreAPIConfig: server.AppAPIServerConfig{
			HTTPServerConfig: server.HTTPServerConfig{
				Address: "", // Test is expected to use httptest server which picks its own address
			},
		},
		AuthenticationConfig: authentication.AuthenticationConfig{
			SharedSecret:           TestSharedSecret,
			SharedSecretPlatformID: TestPlatformID,
		},
		LogLevels: "",
		JWTConfig: credential.JWTConfig{
			SigningKey: []byte(test256bitKeyStr + "-jwt-signing"),
			Issuer:     credential.DefaultJWTIssuer,
		},
		NamingConventionsConfig: app.NamingConventionsConfig{
			File: conventionsFile,
		},
	}
}
