package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/client"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/app/server_test"
)

func TestAuthentication(t *testing.T) {
	ctx := context.Background()

	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()
	app.CoreAPIServer.Start()
	defer app.CoreAPIServer.Stop(ctx)

	serverURL := app.CoreAPIServer.GetServerURL()
	project := server_test.CreateProject(t, ctx, app, "")
	connection := server_test.CreateConnection(t, ctx, app, "gelato", project, secretText("x"))

	t.Run("RootIsPublic", func(t *testing.T) {
		res, err := http.Get(serverURL + "/api/v1/")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("Metrics", func(t *testing.T) {
		res, err := http.Get(serverURL + "/metrics")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("Anonymous", func(t *testing.T) {
		anonymous, err := client.NewAPIClient([]string{serverURL}, nil, app.LogFactory)
		require.NoError(t, err)
		_, err = anonymous.GetProject(ctx, project.ID)
		require.Error(t, err)
		require.True(t, gerror.IsUnauthorized(err))

		_, err = anonymous.GetRuntimeConnection(ctx, connection.ExternalID, project.ExternalID)
		require.True(t, gerror.IsUnauthorized(err))
	})

	t.Run("WrongSharedSecret", func(t *testing.T) {
		authenticator := client.NewSharedSecretAuthenticator("not-the-shared-secret", app.LogFactory)
		wrong, err := client.NewAPIClient([]string{serverURL}, authenticator, app.LogFactory)
		require.NoError(t, err)
		_, err = wrong.GetProject(ctx, project.ID)
		require.True(t, gerror.IsUnauthorized(err))
	})

	t.Run("APIToken", func(t *testing.T) {
		apiClient := makeAPITokenClient(t, app, server_test.TestPlatformID)
		read, err := apiClient.GetProject(ctx, project.ID)
		require.NoError(t, err)
		require.Equal(t, project.ID, read.ID)

		runtime, err := apiClient.GetRuntimeConnection(ctx, connection.ExternalID, project.ExternalID)
		require.NoError(t, err)
		require.NotNil(t, runtime.Value)
	})

	t.Run("ExpiredAPIToken", func(t *testing.T) {
		token, err := app.CredentialService.CreatePlatformJWTWithExpiry(server_test.TestPlatformID, -time.Minute)
		require.NoError(t, err)
		authenticator := client.NewAPITokenAuthenticator(client.APIToken(token), app.LogFactory)
		expired, err := client.NewAPIClient([]string{serverURL}, authenticator, app.LogFactory)
		require.NoError(t, err)
		_, err = expired.GetProject(ctx, project.ID)
		require.True(t, gerror.IsUnauthorized(err))
	})

	t.Run("PlatformIsolation", func(t *testing.T) {
		otherPlatform := makeAPITokenClient(t, app, models.PlatformID("other-platform"))

		_, err := otherPlatform.GetProject(ctx, project.ID)
		require.True(t, gerror.IsNotFound(err))

		_, err = otherPlatform.GetRuntimeConnection(ctx, connection.ExternalID, project.ExternalID)
		require.True(t, gerror.IsConnectionNotFound(err))

		// The same external id names a different project in another platform
		mirror, created, err := otherPlatform.GetOrCreateProject(ctx, &documents.CreateProjectRequest{ExternalID: project.ExternalID})
		require.NoError(t, err)
		require.True(t, created)
		require.NotEqual(t, project.ID, mirror.ID)
		require.Equal(t, models.PlatformID("other-platform"), mirror.PlatformID)
	})
}
