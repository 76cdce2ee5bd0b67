package connection_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/app/server_test"
)

func TestConnectionService(t *testing.T) {
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	t.Run("CreateAndLookup", testCreateAndLookup(app))
	t.Run("CreateDuplicate", testCreateDuplicate(app))
	t.Run("CreateDuplicateConcurrent", testCreateDuplicateConcurrent(app))
	t.Run("CreateValidation", testCreateValidation(app))
	t.Run("CreateUnknownProject", testCreateUnknownProject(app))
	t.Run("CreateDerivedExternalID", testCreateDerivedExternalID(app))
	t.Run("LookupScopeIsolation", testLookupScopeIsolation(app))
	t.Run("LookupNotFound", testLookupNotFound(app))
	t.Run("ListAndDelete", testListAndDelete(app))
}

func secretText(secret string) *models.ConnectionValue {
	return models.NewConnectionValueFromStruct(models.AuthTypeSecretText, models.SecretTextCredential{SecretText: secret})
}

func testCreateAndLookup(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		project := server_test.CreateProject(t, ctx, app, "")
		externalID := models.NamingPrefix("gelato").ConnectionExternalID(project.ExternalID)

		connection, err := app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
			ExternalID:  externalID,
			DisplayName: "Gelato",
			PieceName:   "@activepieces/piece-gelato",
			AuthType:    models.AuthTypeSecretText,
			Scope:       models.ConnectionScopePlatform,
			ProjectIDs:  []models.ProjectID{project.ID},
			Value:       secretText("x"),
		})
		require.NoError(t, err)
		require.True(t, connection.ID.Valid())
		require.Equal(t, []models.ProjectID{project.ID}, connection.ProjectIDs)
		require.Nil(t, connection.Value, "Created connection must not carry the plain text value")
		require.False(t, connection.ValueEncrypted.IsEmpty())
		require.NotContains(t, string(connection.ValueEncrypted), `"x"`)

		read, err := app.ConnectionService.Read(ctx, nil, server_test.TestPlatformID, connection.ID)
		require.NoError(t, err)
		require.Nil(t, read.Value)
		require.Equal(t, externalID, read.ExternalID)

		found, err := app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, externalID, nil)
		require.NoError(t, err)
		require.NotNil(t, found.Value)
		require.Equal(t, models.AuthTypeSecretText, found.Value.Type)
		secret, err := found.Value.SecretText()
		require.NoError(t, err)
		require.Equal(t, "x", secret.SecretText)

		// Lookup is a pure read
		again, err := app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, externalID, &project.ID)
		require.NoError(t, err)
		require.Equal(t, found.ETag, again.ETag)
		require.Equal(t, found.UpdatedAt, again.UpdatedAt)
	}
}

func testCreateDuplicate(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		connection := server_test.CreateConnection(t, ctx, app, "gelato", nil, secretText("original"))

		_, err := app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
			ExternalID: connection.ExternalID,
			PieceName:  connection.PieceName,
			AuthType:   models.AuthTypeSecretText,
			Scope:      models.ConnectionScopePlatform,
			ProjectIDs: connection.ProjectIDs,
			Value:      secretText("replacement"),
		})
		require.Error(t, err)
		require.True(t, gerror.IsAlreadyExists(err))

		// The existing record is unchanged
		found, err := app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, connection.ExternalID, nil)
		require.NoError(t, err)
		require.Equal(t, connection.ID, found.ID)
		require.Equal(t, connection.ETag, found.ETag)
		secret, err := found.Value.SecretText()
		require.NoError(t, err)
		require.Equal(t, "original", secret.SecretText)
	}
}

func testCreateDuplicateConcurrent(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		const callers = 8
		ctx := context.Background()
		project := server_test.CreateProject(t, ctx, app, "")
		externalID := models.NamingPrefix("race").ConnectionExternalID(project.ExternalID)

		var (
			wg      sync.WaitGroup
			results = make([]error, callers)
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
					ExternalID: externalID,
					PieceName:  "race",
					AuthType:   models.AuthTypeSecretText,
					Scope:      models.ConnectionScopePlatform,
					ProjectIDs: []models.ProjectID{project.ID},
					Value:      secretText("x"),
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			require.True(t, gerror.IsAlreadyExists(err), "Unexpected error: %v", err)
		}
		require.Equal(t, 1, succeeded, "Exactly one create should succeed")
	}
}

func testCreateValidation(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		project := server_test.CreateProject(t, ctx, app, "")
		valid := func() *models.ConnectionCreate {
			return &models.ConnectionCreate{
				ExternalID: server_test.RandomExternalID("gelato"),
				PieceName:  "gelato",
				AuthType:   models.AuthTypeSecretText,
				Scope:      models.ConnectionScopePlatform,
				ProjectIDs: []models.ProjectID{project.ID},
				Value:      secretText("x"),
			}
		}

		tests := []struct {
			name   string
			mutate func(c *models.ConnectionCreate)
		}{
			{"ValueTypeMismatch", func(c *models.ConnectionCreate) {
				c.Value = models.NewConnectionValue(models.AuthTypeBasicAuth, map[string]interface{}{"username": "u", "password": "p"})
			}},
			{"EmptySecret", func(c *models.ConnectionCreate) { c.Value = secretText("") }},
			{"MissingValue", func(c *models.ConnectionCreate) { c.Value = nil }},
			{"UnknownAuthType", func(c *models.ConnectionCreate) {
				c.AuthType = "CARRIER_PIGEON"
				c.Value = models.NewConnectionValue("CARRIER_PIGEON", nil)
			}},
			{"NoProjects", func(c *models.ConnectionCreate) { c.ProjectIDs = nil }},
			{"MissingPieceName", func(c *models.ConnectionCreate) { c.PieceName = "" }},
			{"BadScope", func(c *models.ConnectionCreate) { c.Scope = "EVERYWHERE" }},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				create := valid()
				test.mutate(create)
				_, err := app.ConnectionService.Create(ctx, server_test.TestPlatformID, create)
				require.Error(t, err)
				require.True(t, gerror.IsValidationFailed(err), "Expected validation failure, got: %v", err)

				_, err = app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, create.ExternalID, nil)
				require.True(t, gerror.IsNotFound(err), "Nothing should have been written")
			})
		}
	}
}

func testCreateUnknownProject(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		_, err := app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
			ExternalID: server_test.RandomExternalID("gelato"),
			PieceName:  "gelato",
			AuthType:   models.AuthTypeSecretText,
			Scope:      models.ConnectionScopePlatform,
			ProjectIDs: []models.ProjectID{models.NewProjectID()},
			Value:      secretText("x"),
		})
		require.Error(t, err)
		require.True(t, gerror.IsNotFound(err))

		// A project in another platform is not visible either
		other, _, err := app.ProjectService.GetOrCreate(ctx, "other-platform", &models.ProjectData{ExternalID: server_test.RandomExternalID("org")})
		require.NoError(t, err)
		_, err = app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
			ExternalID: server_test.RandomExternalID("gelato"),
			PieceName:  "gelato",
			AuthType:   models.AuthTypeSecretText,
			Scope:      models.ConnectionScopePlatform,
			ProjectIDs: []models.ProjectID{other.ID},
			Value:      secretText("x"),
		})
		require.True(t, gerror.IsNotFound(err))
	}
}

func testCreateDerivedExternalID(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		project := server_test.CreateProject(t, ctx, app, "")

		connection, err := app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
			PieceName:  server_test.TestConventionPieceName,
			AuthType:   models.AuthTypeSecretText,
			Scope:      models.ConnectionScopePlatform,
			ProjectIDs: []models.ProjectID{project.ID},
			Value:      secretText("x"),
		})
		require.NoError(t, err)
		require.Equal(t, server_test.TestConventionPrefix.ConnectionExternalID(project.ExternalID), connection.ExternalID)

		// No convention for the piece
		_, err = app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
			PieceName:  "unconventional",
			AuthType:   models.AuthTypeSecretText,
			Scope:      models.ConnectionScopePlatform,
			ProjectIDs: []models.ProjectID{project.ID},
			Value:      secretText("x"),
		})
		require.True(t, gerror.IsValidationFailed(err))

		// Ambiguous with more than one project
		second := server_test.CreateProject(t, ctx, app, "")
		_, err = app.ConnectionService.Create(ctx, server_test.TestPlatformID, &models.ConnectionCreate{
			PieceName:  server_test.TestConventionPieceName,
			AuthType:   models.AuthTypeSecretText,
			Scope:      models.ConnectionScopePlatform,
			ProjectIDs: []models.ProjectID{project.ID, second.ID},
			Value:      secretText("x"),
		})
		require.True(t, gerror.IsValidationFailed(err))
	}
}

func testLookupScopeIsolation(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		owner := server_test.CreateProject(t, ctx, app, "")
		stranger := server_test.CreateProject(t, ctx, app, "")
		connection := server_test.CreateConnection(t, ctx, app, "gelato", owner, secretText("x"))

		_, err := app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, connection.ExternalID, &owner.ID)
		require.NoError(t, err)

		_, err = app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, connection.ExternalID, &stranger.ID)
		require.Error(t, err)
		require.True(t, gerror.IsNotFound(err))

		_, err = app.ConnectionService.Lookup(ctx, "other-platform", connection.ExternalID, nil)
		require.True(t, gerror.IsNotFound(err))
	}
}

func testLookupNotFound(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		_, err := app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, "gelato_org_9999", nil)
		require.Error(t, err)
		gErr := gerror.ToNotFound(err)
		require.NotNil(t, gErr)
		require.Contains(t, gErr.Message(), "gelato_org_9999")

		_, err = app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, "", nil)
		require.True(t, gerror.IsValidationFailed(err))
	}
}

func testListAndDelete(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		project := server_test.CreateProject(t, ctx, app, "")
		first := server_test.CreateConnection(t, ctx, app, "gelato", project, secretText("1"))
		second := server_test.CreateConnection(t, ctx, app, "slack", project, secretText("2"))

		connections, _, err := app.ConnectionService.ListByProject(ctx, nil, server_test.TestPlatformID, project.ID, models.NewPagination(models.DefaultPaginationLimit, nil))
		require.NoError(t, err)
		require.Len(t, connections, 2)
		for _, connection := range connections {
			require.Nil(t, connection.Value)
			require.Equal(t, []models.ProjectID{project.ID}, connection.ProjectIDs)
		}

		err = app.ConnectionService.Delete(ctx, server_test.TestPlatformID, first.ID)
		require.NoError(t, err)
		err = app.ConnectionService.Delete(ctx, server_test.TestPlatformID, first.ID)
		require.True(t, gerror.IsNotFound(err))

		_, err = app.ConnectionService.Lookup(ctx, server_test.TestPlatformID, first.ExternalID, nil)
		require.True(t, gerror.IsNotFound(err))

		connections, _, err = app.ConnectionService.ListByProject(ctx, nil, server_test.TestPlatformID, project.ID, models.NewPagination(models.DefaultPaginationLimit, nil))
		require.NoError(t, err)
		require.Len(t, connections, 1)
		require.Equal(t, second.ID, connections[0].ID)

		_, _, err = app.ConnectionService.ListByProject(ctx, nil, server_test.TestPlatformID, models.NewProjectID(), models.NewPagination(models.DefaultPaginationLimit, nil))
		require.True(t, gerror.IsNotFound(err))
	}
}
