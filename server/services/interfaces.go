package services

import (
	"context"
	"time"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/store"
)

type EncryptionService interface {
	// Encrypt plainTextData using a freshly generated data key. Returns the encrypted data and the
	// data key, itself encrypted by the key manager.
	Encrypt(ctx context.Context, plainTextData []byte) (encryptedData []byte, encryptedDataKey []byte, err error)
	// Decrypt the encrypted data using the encrypted data key it was encrypted with.
	Decrypt(ctx context.Context, encryptedData []byte, encryptedDataKey []byte) (plainTextData []byte, err error)
}

type CredentialService interface {
	// CreatePlatformJWT creates a new API token for the specified platform.
	CreatePlatformJWT(platformID models.PlatformID) (string, error)
	// CreatePlatformJWTWithExpiry creates a new API token for the specified platform that expires after expiryDuration.
	CreatePlatformJWTWithExpiry(platformID models.PlatformID, expiryDuration time.Duration) (string, error)
	// VerifyPlatformJWT verifies an API token and returns the platform it was issued for.
	VerifyPlatformJWT(tokenStr string) (models.PlatformID, error)
}

type AuthenticationService interface {
	// AuthenticateSharedSecret authenticates a caller using the configured shared secret.
	// Returns the platform the caller acts within.
	AuthenticateSharedSecret(ctx context.Context, token string) (models.PlatformID, error)
	// AuthenticateJWT authenticates a caller using an API token issued for a platform.
	// Returns the platform named in the token.
	AuthenticateJWT(ctx context.Context, jwt string) (models.PlatformID, error)
}

type ProjectService interface {
	// GetOrCreate returns the project with the supplied external id within the platform, creating it if it
	// does not exist. Concurrent calls for the same external id all return the same project.
	// Returns true iff the project was created by this call.
	GetOrCreate(ctx context.Context, platformID models.PlatformID, data *models.ProjectData) (project *models.Project, created bool, err error)
	// Read an existing project, looking it up by ID.
	// Returns gerror.ErrNotFound if the project does not exist within the platform.
	Read(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, id models.ProjectID) (*models.Project, error)
	// ReadByExternalID reads an existing project, looking it up by external id.
	// Returns gerror.ErrNotFound if the project does not exist within the platform.
	ReadByExternalID(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, externalID string) (*models.Project, error)
	// List projects within the platform, optionally filtered by external id. Use cursor to page through results, if any.
	List(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, search *models.ProjectSearch, pagination models.Pagination) ([]*models.Project, *models.Cursor, error)
}

type ConnectionService interface {
	// Create a new connection holding the supplied value, attached to the supplied projects.
	// Returns gerror.ErrAlreadyExists if a connection with the same external id already exists within the
	// platform; the existing connection is left unchanged.
	// Returns gerror.ErrValidationFailed if the value does not match the auth type, and gerror.ErrNotFound
	// if any of the projects does not exist.
	Create(ctx context.Context, platformID models.PlatformID, create *models.ConnectionCreate) (*models.Connection, error)
	// Read an existing connection, looking it up by ID. The value is not decrypted.
	// Returns gerror.ErrNotFound if the connection does not exist within the platform.
	Read(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, id models.ConnectionID) (*models.Connection, error)
	// Lookup reads a connection by external id and decrypts its value.
	// If requestingProject is supplied and the connection is not attached to it, the connection is
	// reported as not found. Returns gerror.ErrNotFound if the connection does not exist.
	Lookup(ctx context.Context, platformID models.PlatformID, externalID string, requestingProject *models.ProjectID) (*models.Connection, error)
	// ListByProject lists the connections attached to a project. Values are not decrypted.
	ListByProject(ctx context.Context, txOrNil *store.Tx, platformID models.PlatformID, projectID models.ProjectID, pagination models.Pagination) ([]*models.Connection, *models.Cursor, error)
	// Delete permanently deletes a connection.
	// Returns gerror.ErrNotFound if the connection does not exist within the platform.
	Delete(ctx context.Context, platformID models.PlatformID, id models.ConnectionID) error
}
