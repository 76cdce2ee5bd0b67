package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/client"
	"github.com/buildbeaver/connections/server/app/server_test"
)

// makeSharedSecretClient makes a client for the test server that authenticates using the shared secret.
func makeSharedSecretClient(t *testing.T, app *server_test.TestServer, opts ...client.Option) *client.APIClient {
	authenticator := client.NewSharedSecretAuthenticator(client.SharedSecretToken(server_test.TestSharedSecret), app.LogFactory)
	apiClient, err := client.NewAPIClient([]string{app.CoreAPIServer.GetServerURL()}, authenticator, app.LogFactory, opts...)
	require.NoError(t, err)
	return apiClient
}

// makeAPITokenClient makes a client for the test server that authenticates using an API token issued
// for the specified platform.
func makeAPITokenClient(t *testing.T, app *server_test.TestServer, platformID models.PlatformID) *client.APIClient {
	token, err := app.CredentialService.CreatePlatformJWT(platformID)
	require.NoError(t, err)
	authenticator := client.NewAPITokenAuthenticator(client.APIToken(token), app.LogFactory)
	apiClient, err := client.NewAPIClient([]string{app.CoreAPIServer.GetServerURL()}, authenticator, app.LogFactory)
	require.NoError(t, err)
	return apiClient
}

func secretText(secret string) *models.ConnectionValue {
	return models.NewConnectionValueFromStruct(models.AuthTypeSecretText, models.SecretTextCredential{SecretText: secret})
}
