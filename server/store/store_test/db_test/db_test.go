package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/app/server_test"
)

// TestResourceAlreadyExistsThrown tests that MakeStandardDBError provides the correct error code when we attempt to
// create a unique resource that already exists
func TestResourceAlreadyExistsThrown(t *testing.T) {
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.Nil(t, err)
	defer cleanup()

	now := models.NewTime(time.Now())
	data := models.ProjectData{ExternalID: server_test.RandomExternalID("org")}

	// First project creation will pass
	err = app.ProjectStore.Create(context.Background(), nil, models.NewProject(now, server_test.TestPlatformID, data))
	require.Nil(t, err)

	// Second project creation with the same external id should fail with ErrCodeAlreadyExists
	err = app.ProjectStore.Create(context.Background(), nil, models.NewProject(now, server_test.TestPlatformID, data))
	require.NotNil(t, err)
	require.NotNil(t, gerror.ToAlreadyExists(err))
}

// TestResourceNotFoundThrown tests that MakeStandardDBError provides the correct error code when we attempt to
// retrieve a resource that doesn't exist.
func TestResourceNotFoundThrown(t *testing.T) {
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.Nil(t, err)
	defer cleanup()

	_, err = app.ProjectStore.Read(context.Background(), nil, models.NewProjectID())
	require.NotNil(t, err)
	require.NotNil(t, gerror.ToNotFound(err))
}
