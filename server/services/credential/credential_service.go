package credential

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
)

type JWTConfig struct {
	// SigningKey is the HMAC key used to sign and verify API tokens. If empty a random key is generated,
	// and tokens will not be valid after a restart.
	SigningKey     []byte
	Issuer         string
	ExpiryDuration time.Duration
}

// CredentialService issues and verifies the API tokens used by platforms to call the admin API.
type CredentialService struct {
	config JWTConfig
	clock  clock.Clock
	logger.Log
}

func NewCredentialService(config JWTConfig, clk clock.Clock, logFactory logger.LogFactory) (*CredentialService, error) {
	log := logFactory("CredentialService")
	if config.Issuer == "" {
		config.Issuer = DefaultJWTIssuer
	}
	if config.ExpiryDuration == 0 {
		config.ExpiryDuration = DefaultJWTExpiryDuration
	}
	if len(config.SigningKey) == 0 {
		log.Warn("No API token signing key configured; generating a random key. Issued tokens will not survive a restart")
		key := make([]byte, MinSigningKeyLength)
		_, err := io.ReadFull(rand.Reader, key)
		if err != nil {
			return nil, fmt.Errorf("error generating API token signing key: %w", err)
		}
		config.SigningKey = key
	}
	if len(config.SigningKey) < MinSigningKeyLength {
		return nil, fmt.Errorf("error API token signing key must be at least %d bytes", MinSigningKeyLength)
	}
	return &CredentialService{
		config: config,
		clock:  clk,
		Log:    log,
	}, nil
}

// CreatePlatformJWT creates a new API token for the specified platform using the configured expiry duration.
func (s *CredentialService) CreatePlatformJWT(platformID models.PlatformID) (string, error) {
	return s.CreatePlatformJWTWithExpiry(platformID, s.config.ExpiryDuration)
}

// CreatePlatformJWTWithExpiry creates a new API token for the specified platform that expires after expiryDuration.
func (s *CredentialService) CreatePlatformJWTWithExpiry(platformID models.PlatformID, expiryDuration time.Duration) (string, error) {
	if err := platformID.Validate(); err != nil {
		return "", err
	}
	tokenStr, claims, err := CreatePlatformJWT(platformID, s.config.Issuer, s.clock.Now(), expiryDuration, s.config.SigningKey)
	if err != nil {
		return "", fmt.Errorf("error creating platform JWT: %w", err)
	}
	s.Infof("Issued API token for platform %q expiring at %s", platformID, claims.ExpiresAt.Time)
	return tokenStr, nil
}

// VerifyPlatformJWT verifies an API token and returns the platform it was issued for.
func (s *CredentialService) VerifyPlatformJWT(tokenStr string) (models.PlatformID, error) {
	return VerifyPlatformJWT(tokenStr, s.config.Issuer, s.config.SigningKey)
}
