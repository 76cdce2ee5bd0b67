package api_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/api/rest/middleware"
	"github.com/buildbeaver/connections/server/app/server_test"
)

func TestConnectionAPI(t *testing.T) {
	ctx := context.Background()

	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()
	app.CoreAPIServer.Start()
	defer app.CoreAPIServer.Stop(ctx)

	apiClient := makeSharedSecretClient(t, app)
	project := server_test.CreateProject(t, ctx, app, "")
	externalID := models.NamingPrefix("gelato").ConnectionExternalID(project.ExternalID)

	req := &documents.CreateConnectionRequest{
		DisplayName: "Gelato",
		PieceName:   "@activepieces/piece-gelato",
		Type:        models.AuthTypeSecretText,
		Value:       secretText("super-secret-value"),
		ProjectIDs:  []models.ProjectID{project.ID},
		ExternalID:  externalID,
	}
	connection, err := apiClient.CreateConnection(ctx, req)
	require.NoError(t, err)
	require.Equal(t, externalID, connection.ExternalID)
	require.Equal(t, models.ConnectionScopePlatform, connection.Scope)
	require.Equal(t, []models.ProjectID{project.ID}, connection.ProjectIDs)

	t.Run("ValueIsRedacted", func(t *testing.T) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, connection.URL, nil)
		require.NoError(t, err)
		httpReq.Header.Set(middleware.SharedSecretHeader, server_test.TestSharedSecret)
		res, err := http.DefaultClient.Do(httpReq)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), externalID)
		require.NotContains(t, string(body), "super-secret-value")
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		duplicate := *req
		duplicate.Value = secretText("replacement")
		_, err := apiClient.CreateConnection(ctx, &duplicate)
		require.Error(t, err)
		require.True(t, gerror.IsAlreadyExists(err))

		runtime, err := apiClient.GetRuntimeConnection(ctx, externalID, project.ExternalID)
		require.NoError(t, err)
		secret, err := runtime.Value.SecretText()
		require.NoError(t, err)
		require.Equal(t, "super-secret-value", secret.SecretText)
	})

	t.Run("CreateValidation", func(t *testing.T) {
		_, err := apiClient.CreateConnection(ctx, &documents.CreateConnectionRequest{
			PieceName: "@activepieces/piece-gelato",
			Type:      models.AuthTypeSecretText,
			Value:     secretText("x"),
		})
		require.True(t, gerror.IsValidationFailed(err), "connections must be attached to at least one project")

		_, err = apiClient.CreateConnection(ctx, &documents.CreateConnectionRequest{
			PieceName:  "@activepieces/piece-gelato",
			Type:       models.AuthTypeBasicAuth,
			Value:      secretText("x"),
			ProjectIDs: []models.ProjectID{project.ID},
			ExternalID: server_test.RandomExternalID("mismatch"),
		})
		require.True(t, gerror.IsValidationFailed(err), "value must match the auth type")
	})

	t.Run("GetAndList", func(t *testing.T) {
		read, err := apiClient.GetConnection(ctx, connection.ID)
		require.NoError(t, err)
		require.Equal(t, connection.ETag, read.ETag)

		listed, _, err := apiClient.ListProjectConnections(ctx, project.ID, nil)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, connection.ID, listed[0].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		other := server_test.CreateConnection(t, ctx, app, "slack", project, secretText("x"))
		err := apiClient.DeleteConnection(ctx, other.ID)
		require.NoError(t, err)

		_, err = apiClient.GetConnection(ctx, other.ID)
		require.True(t, gerror.IsNotFound(err))

		err = apiClient.DeleteConnection(ctx, other.ID)
		require.True(t, gerror.IsNotFound(err))
	})
}
