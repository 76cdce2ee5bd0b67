package authentication

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/pkg/errors"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/services"
)

// MinSharedSecretLength is the shortest shared secret the server will accept.
const MinSharedSecretLength = 16

type AuthenticationConfig struct {
	// SharedSecret authenticates callers that present it in the connections-token header. Empty to
	// disable shared secret authentication.
	SharedSecret string
	// SharedSecretPlatformID is the platform that shared secret callers act within.
	SharedSecretPlatformID models.PlatformID
}

type AuthenticationService struct {
	credentialService      services.CredentialService
	sharedSecretHash       []byte
	sharedSecretPlatformID models.PlatformID
	logger.Log
}

func NewAuthenticationService(
	config AuthenticationConfig,
	credentialService services.CredentialService,
	logFactory logger.LogFactory,
) (*AuthenticationService, error) {
	s := &AuthenticationService{
		credentialService:      credentialService,
		sharedSecretPlatformID: config.SharedSecretPlatformID,
		Log:                    logFactory("AuthenticationService"),
	}
	if config.SharedSecret != "" {
		if len(config.SharedSecret) < MinSharedSecretLength {
			return nil, errors.Errorf("error shared secret must be at least %d characters", MinSharedSecretLength)
		}
		if s.sharedSecretPlatformID == "" {
			s.sharedSecretPlatformID = models.DefaultPlatformID
		}
		if err := s.sharedSecretPlatformID.Validate(); err != nil {
			return nil, errors.Wrap(err, "error invalid shared secret platform")
		}
		hash := sha256.Sum256([]byte(config.SharedSecret))
		s.sharedSecretHash = hash[:]
	} else {
		s.Warn("Shared secret authentication is disabled")
	}
	return s, nil
}

// AuthenticateSharedSecret authenticates a caller using the configured shared secret.
// Returns the platform the caller acts within.
func (s *AuthenticationService) AuthenticateSharedSecret(ctx context.Context, token string) (models.PlatformID, error) {
	if s.sharedSecretHash == nil {
		return "", gerror.NewErrUnauthorized("Unauthorized")
	}
	hash := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(hash[:], s.sharedSecretHash) != 1 {
		return "", gerror.NewErrUnauthorized("Unauthorized")
	}
	return s.sharedSecretPlatformID, nil
}

// AuthenticateJWT authenticates a caller using an API token issued for a platform.
// Returns the platform named in the token.
func (s *AuthenticationService) AuthenticateJWT(ctx context.Context, jwt string) (models.PlatformID, error) {
	platformID, err := s.credentialService.VerifyPlatformJWT(jwt)
	if err != nil {
		return "", gerror.NewErrUnauthorized("Unauthorized").Wrap(err)
	}
	return platformID, nil
}
