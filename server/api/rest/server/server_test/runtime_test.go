package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/common/resolution"
	"github.com/buildbeaver/connections/server/api/rest/client"
	"github.com/buildbeaver/connections/server/app/server_test"
)

func TestRuntimeAPI(t *testing.T) {
	ctx := context.Background()

	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()
	app.CoreAPIServer.Start()
	defer app.CoreAPIServer.Stop(ctx)

	apiClient := makeSharedSecretClient(t, app)
	owner := server_test.CreateProject(t, ctx, app, "")
	stranger := server_test.CreateProject(t, ctx, app, "")
	connection := server_test.CreateConnection(t, ctx, app, "gelato", owner, secretText("x"))

	t.Run("Attached", func(t *testing.T) {
		runtime, err := apiClient.GetRuntimeConnection(ctx, connection.ExternalID, owner.ExternalID)
		require.NoError(t, err)
		require.Equal(t, connection.ID, runtime.ID)
		require.NotNil(t, runtime.Value)
		require.Equal(t, models.AuthTypeSecretText, runtime.Value.Type)
	})

	t.Run("NotAttached", func(t *testing.T) {
		_, err := apiClient.GetRuntimeConnection(ctx, connection.ExternalID, stranger.ExternalID)
		require.Error(t, err)
		require.True(t, gerror.IsConnectionNotFound(err))
	})

	t.Run("UnknownProject", func(t *testing.T) {
		_, err := apiClient.GetRuntimeConnection(ctx, connection.ExternalID, server_test.RandomExternalID("org"))
		require.True(t, gerror.IsConnectionNotFound(err))
	})

	t.Run("UnknownConnection", func(t *testing.T) {
		_, err := apiClient.GetRuntimeConnection(ctx, "gelato_org_9999", owner.ExternalID)
		require.True(t, gerror.IsConnectionNotFound(err))
		require.Contains(t, gerror.ToConnectionNotFound(err).Message(), "gelato_org_9999")
	})

	t.Run("MissingProject", func(t *testing.T) {
		_, err := apiClient.GetRuntimeConnection(ctx, connection.ExternalID, "")
		require.True(t, gerror.IsMissingTenantIdentity(err))
	})
}

func TestResolveOverRuntimeAPI(t *testing.T) {
	ctx := context.Background()

	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()
	app.CoreAPIServer.Start()
	defer app.CoreAPIServer.Stop(ctx)

	project := server_test.CreateProject(t, ctx, app, "org_1234")
	server_test.CreateConnection(t, ctx, app, "gelato", project,
		models.NewConnectionValue(models.AuthTypeCustomAuth, map[string]interface{}{"apiKey": "x"}))

	apiClient := makeSharedSecretClient(t, app, client.WithRetryMax(0))
	resolve := func(identity resolution.ProjectIdentity) (*models.ConnectionValue, error) {
		capability := client.NewRuntimeCapability(apiClient, identity)
		return resolution.NewResolver(capability, app.LogFactory).Resolve(ctx, "gelato", identity)
	}

	value, err := resolve(resolution.StaticProjectIdentity("org_1234"))
	require.NoError(t, err)
	require.Equal(t, models.AuthTypeCustomAuth, value.Type)
	require.Equal(t, map[string]interface{}{"apiKey": "x"}, value.Props)

	_, err = resolve(resolution.StaticProjectIdentity("org_9999"))
	require.True(t, gerror.IsConnectionNotFound(err))
	require.Contains(t, gerror.ToConnectionNotFound(err).Message(), "gelato_org_9999")

	_, err = resolve(resolution.NoProjectIdentity)
	require.True(t, gerror.IsMissingTenantIdentity(err))
}

func TestResolveTimeout(t *testing.T) {
	ctx := context.Background()

	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	logFactory := logger.NoOpLogFactory
	apiClient, err := client.NewAPIClient([]string{slow.URL}, nil, logFactory,
		client.WithRetryMax(0),
		client.WithTimeout(100*time.Millisecond))
	require.NoError(t, err)

	identity := resolution.StaticProjectIdentity("org_1234")
	resolver := resolution.NewResolver(client.NewRuntimeCapability(apiClient, identity), logFactory)
	_, err = resolver.Resolve(ctx, "gelato", identity)
	require.Error(t, err)
	require.True(t, gerror.IsTransport(err))
	require.False(t, gerror.IsConnectionNotFound(err))
}
