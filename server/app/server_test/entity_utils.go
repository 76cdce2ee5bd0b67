package server_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/models"
)

// TestPlatformID is the platform used by tests, and the platform shared secret callers act within.
const TestPlatformID = models.DefaultPlatformID

// RandomExternalID returns a unique external id starting with prefix, suitable for use as a
// project or connection external id.
func RandomExternalID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// CreateProject gets or creates a project in the test platform. If externalID is blank a random one is used.
func CreateProject(t *testing.T, ctx context.Context, app *TestServer, externalID string) *models.Project {
	if externalID == "" {
		externalID = RandomExternalID("org")
	}
	project, _, err := app.ProjectService.GetOrCreate(ctx, TestPlatformID, &models.ProjectData{
		ExternalID:  externalID,
		DisplayName: "Test Project " + externalID,
	})
	require.NoError(t, err)
	return project
}

// CreateConnection provisions a platform scoped connection named by prefix for project, using the
// standard "<prefix>_<projectExternalID>" external id. If project is nil a new project is created.
func CreateConnection(
	t *testing.T,
	ctx context.Context,
	app *TestServer,
	prefix models.NamingPrefix,
	project *models.Project,
	value *models.ConnectionValue,
) *models.Connection {
	if project == nil {
		project = CreateProject(t, ctx, app, "")
	}
	connection, err := app.ConnectionService.Create(ctx, TestPlatformID, &models.ConnectionCreate{
		ExternalID:  prefix.ConnectionExternalID(project.ExternalID),
		DisplayName: fmt.Sprintf("%s for %s", prefix, project.ExternalID),
		PieceName:   "@activepieces/piece-" + prefix.String(),
		AuthType:    value.Type,
		Scope:       models.ConnectionScopePlatform,
		ProjectIDs:  []models.ProjectID{project.ID},
		Value:       value,
	})
	require.NoError(t, err)
	return connection
}
