package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/services"
)

// SharedSecretHeader is the request header carrying the shared secret.
const SharedSecretHeader = "connections-token"

type authenticationMetaContextKey struct{}

type CredentialType string

const (
	CredentialTypeJWT          CredentialType = "jwt"
	CredentialTypeSharedSecret CredentialType = "shared_secret"
)

type AuthenticationMeta struct {
	PlatformID     models.PlatformID
	CredentialType CredentialType
}

// AuthenticationMetaFromContext returns the authentication meta stored by one of the authenticators,
// or nil if the request is not authenticated.
func AuthenticationMetaFromContext(ctx context.Context) *AuthenticationMeta {
	meta, _ := ctx.Value(authenticationMetaContextKey{}).(*AuthenticationMeta)
	return meta
}

// WithAuthenticationMeta returns a copy of ctx carrying meta.
func WithAuthenticationMeta(ctx context.Context, meta *AuthenticationMeta) context.Context {
	return context.WithValue(ctx, authenticationMetaContextKey{}, meta)
}

// MakeMustAuthenticate makes a middleware that enforces that the request must be authenticated.
// If the request is not authenticated then a 401 error will be returned to the client.
func MakeMustAuthenticate(log logger.Log) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if AuthenticationMetaFromContext(r.Context()) == nil {
				writeUnauthorized(log, w, r, gerror.NewErrUnauthorized("Unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// MakeSharedSecretAuthenticator makes a middleware that authenticates requests using
// a shared secret token from the request headers. If the request headers do not contain
// a token then this a no-op.
func MakeSharedSecretAuthenticator(log logger.Log, authenticationService services.AuthenticationService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(SharedSecretHeader)
			if token != "" {
				platformID, err := authenticationService.AuthenticateSharedSecret(r.Context(), token)
				if err != nil {
					writeUnauthorized(log, w, r, gerror.NewErrUnauthorized("Invalid shared secret").Wrap(err))
					return
				}
				meta := &AuthenticationMeta{
					PlatformID:     platformID,
					CredentialType: CredentialTypeSharedSecret,
				}
				r = r.WithContext(WithAuthenticationMeta(r.Context(), meta))
				log.Tracef("Authenticated platform %q using shared secret", platformID)
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// MakeJWTAuthenticator makes a middleware that authenticates requests using a JWT (JSON Web Token) supplied
// by the client, requiring it to be valid and signed by the server.
// If no JWT was provided in the request then this is a no-op.
func MakeJWTAuthenticator(log logger.Log, authenticationService services.AuthenticationService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			// Check that the client provided a JWT in the Authorization header as a Bearer token
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "

			if len(authHeader) > len(bearerPrefix) && strings.HasPrefix(strings.ToLower(authHeader), strings.ToLower(bearerPrefix)) {
				token := strings.TrimSpace(authHeader[len(bearerPrefix):])

				platformID, err := authenticationService.AuthenticateJWT(r.Context(), token)
				if err != nil {
					writeUnauthorized(log, w, r, gerror.NewErrUnauthorized("Invalid API token").Wrap(
						fmt.Errorf("error authenticating client: %w", err)))
					return
				}

				meta := &AuthenticationMeta{
					PlatformID:     platformID,
					CredentialType: CredentialTypeJWT,
				}
				r = r.WithContext(WithAuthenticationMeta(r.Context(), meta))
				log.Tracef("Authenticated platform %q using JWT", platformID)
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func writeUnauthorized(log logger.Log, w http.ResponseWriter, r *http.Request, err gerror.Error) {
	log.Warnf("Rejecting unauthenticated request to %s: %v", r.URL.Path, err)
	render.Status(r, err.HTTPStatusCode())
	render.JSON(w, r, &documents.ErrorDocument{
		Code:           err.Code(),
		HTTPStatusCode: err.HTTPStatusCode(),
		Message:        err.Message(),
		Details:        map[gerror.DetailKey]interface{}{},
	})
}
