package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/buildbeaver/connections/common/models"
)

const (
	DefaultJWTExpiryDuration = 90 * 24 * time.Hour
	DefaultJWTIssuer         = "connections"
	// MinSigningKeyLength is the shortest HMAC key accepted for signing API tokens.
	MinSigningKeyLength = 32
)

// PlatformTokenClaims are the claims carried by a platform API token. The subject is the platform id.
type PlatformTokenClaims struct {
	PlatformID string `json:"platform_id"`
	jwt.RegisteredClaims
}

// CreatePlatformJWT creates a new JWT (JSON Web Token) API token that can be used to authenticate as
// the specified platform. The JWT will be signed with HMAC-SHA256 using the supplied key.
func CreatePlatformJWT(
	platformID models.PlatformID,
	issuer string,
	now time.Time,
	expiryDuration time.Duration,
	signingKey []byte,
) (string, *PlatformTokenClaims, error) {
	claims := &PlatformTokenClaims{
		PlatformID: platformID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   platformID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// VerifyPlatformJWT verifies the signature and validity period of the supplied JWT and returns the
// platform id it was issued for.
func VerifyPlatformJWT(tokenStr string, issuer string, signingKey []byte) (models.PlatformID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &PlatformTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the algorithm is as expected
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("error unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("error parsing platform JWT: %w", err)
	}
	claims := token.Claims.(*PlatformTokenClaims)
	if !claims.VerifyIssuer(issuer, true) {
		return "", fmt.Errorf("error JWT issuer %q does not match expected issuer %q", claims.Issuer, issuer)
	}
	platformID := models.PlatformID(claims.PlatformID)
	if claims.Subject != claims.PlatformID {
		return "", fmt.Errorf("error JWT subject does not match platform id claim")
	}
	if err := platformID.Validate(); err != nil {
		return "", fmt.Errorf("error JWT carries an invalid platform id: %w", err)
	}
	return platformID, nil
}
