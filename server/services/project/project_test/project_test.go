package project_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/app/server_test"
)

func TestProjectService(t *testing.T) {
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	t.Run("GetOrCreateIsIdempotent", testGetOrCreateIsIdempotent(app))
	t.Run("GetOrCreateConcurrent", testGetOrCreateConcurrent(app))
	t.Run("GetOrCreateValidation", testGetOrCreateValidation(app))
	t.Run("PlatformIsolation", testPlatformIsolation(app))
	t.Run("List", testList(app))
}

func testGetOrCreateIsIdempotent(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		data := &models.ProjectData{
			ExternalID:  server_test.RandomExternalID("org"),
			DisplayName: "Gelato Org",
			Metadata:    models.Metadata{"tier": "enterprise"},
		}

		first, created, err := app.ProjectService.GetOrCreate(ctx, server_test.TestPlatformID, data)
		require.NoError(t, err)
		require.True(t, created)
		require.True(t, first.ID.Valid())
		require.Equal(t, data.ExternalID, first.ExternalID)
		require.Equal(t, "enterprise", first.Metadata["tier"])

		// A second request with different details returns the original project unchanged
		second, created, err := app.ProjectService.GetOrCreate(ctx, server_test.TestPlatformID, &models.ProjectData{
			ExternalID:  data.ExternalID,
			DisplayName: "Renamed",
		})
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, first.ID, second.ID)
		require.Equal(t, "Gelato Org", second.DisplayName)
		require.Equal(t, first.ETag, second.ETag)

		byExternalID, err := app.ProjectService.ReadByExternalID(ctx, nil, server_test.TestPlatformID, data.ExternalID)
		require.NoError(t, err)
		require.Equal(t, first.ID, byExternalID.ID)

		byID, err := app.ProjectService.Read(ctx, nil, server_test.TestPlatformID, first.ID)
		require.NoError(t, err)
		require.Equal(t, data.ExternalID, byID.ExternalID)
	}
}

func testGetOrCreateConcurrent(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		const callers = 10
		ctx := context.Background()
		externalID := server_test.RandomExternalID("org")

		var (
			wg       sync.WaitGroup
			ids      = make([]models.ProjectID, callers)
			creates  = make([]bool, callers)
			failures = make([]error, callers)
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				project, created, err := app.ProjectService.GetOrCreate(ctx, server_test.TestPlatformID, &models.ProjectData{ExternalID: externalID})
				failures[i] = err
				if err == nil {
					ids[i] = project.ID
					creates[i] = created
				}
			}(i)
		}
		wg.Wait()

		createdCount := 0
		for i := 0; i < callers; i++ {
			require.NoError(t, failures[i])
			require.Equal(t, ids[0], ids[i], "All callers must see the same project")
			if creates[i] {
				createdCount++
			}
		}
		require.Equal(t, 1, createdCount, "Exactly one caller should have created the project")

		projects, _, err := app.ProjectService.List(ctx, nil, server_test.TestPlatformID, &models.ProjectSearch{ExternalID: &externalID}, models.NewPagination(models.DefaultPaginationLimit, nil))
		require.NoError(t, err)
		require.Len(t, projects, 1)
	}
}

func testGetOrCreateValidation(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		_, _, err := app.ProjectService.GetOrCreate(ctx, server_test.TestPlatformID, &models.ProjectData{ExternalID: ""})
		require.Error(t, err)
		require.True(t, gerror.IsValidationFailed(err))

		_, _, err = app.ProjectService.GetOrCreate(ctx, server_test.TestPlatformID, nil)
		require.True(t, gerror.IsValidationFailed(err))

		_, _, err = app.ProjectService.GetOrCreate(ctx, "not a platform!", &models.ProjectData{ExternalID: "org_1"})
		require.True(t, gerror.IsValidationFailed(err))
	}
}

func testPlatformIsolation(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		externalID := server_test.RandomExternalID("org")

		mine, _, err := app.ProjectService.GetOrCreate(ctx, server_test.TestPlatformID, &models.ProjectData{ExternalID: externalID})
		require.NoError(t, err)
		theirs, created, err := app.ProjectService.GetOrCreate(ctx, "other-platform", &models.ProjectData{ExternalID: externalID})
		require.NoError(t, err)
		require.True(t, created, "The same external id in another platform is a different project")
		require.NotEqual(t, mine.ID, theirs.ID)

		_, err = app.ProjectService.Read(ctx, nil, server_test.TestPlatformID, theirs.ID)
		require.True(t, gerror.IsNotFound(err))
	}
}

func testList(app *server_test.TestServer) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		platformID := models.PlatformID(server_test.RandomExternalID("list-platform"))
		for i := 0; i < 5; i++ {
			_, _, err := app.ProjectService.GetOrCreate(ctx, platformID, &models.ProjectData{ExternalID: server_test.RandomExternalID("org")})
			require.NoError(t, err)
		}

		seen := make(map[models.ProjectID]bool)
		pagination := models.NewPagination(2, nil)
		for {
			projects, cursor, err := app.ProjectService.List(ctx, nil, platformID, nil, pagination)
			require.NoError(t, err)
			for _, project := range projects {
				require.Equal(t, platformID, project.PlatformID)
				require.False(t, seen[project.ID], "Project returned twice")
				seen[project.ID] = true
			}
			if cursor == nil || cursor.Next == nil {
				break
			}
			pagination = models.NewPagination(2, cursor.Next)
		}
		require.Len(t, seen, 5)
	}
}
