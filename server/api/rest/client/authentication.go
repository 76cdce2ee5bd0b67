package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/api/rest/middleware"
)

type SharedSecretToken string

// APIToken is a JWT issued for a platform.
type APIToken string

// InsecureSkipVerify is a debug setting to prevent the client from validating the server's certificate
// when connecting via HTTPS. Required when the server is using a self-signed certificate and the client is
// not configured to use this certificate as a CA.
type InsecureSkipVerify bool

func (b InsecureSkipVerify) Bool() bool {
	return bool(b)
}

// Authenticator enables the API client to make authenticated API requests
// using pluggable authentication methods.
type Authenticator interface {
	AuthenticateRequest(h http.Header) (http.Header, error)
	// AuthenticateClient is called after an HTTP client is set up for the API. Allows the authenticator to set
	// properties (e.g. CAs) for the TLS connection.
	AuthenticateClient(client *retryablehttp.Client) (*retryablehttp.Client, error)
}

// SharedSecretAuthenticator authenticates API client requests using a shared secret.
type SharedSecretAuthenticator struct {
	token string
	logger.Log
}

func NewSharedSecretAuthenticator(token SharedSecretToken, logFactory logger.LogFactory) *SharedSecretAuthenticator {
	return &SharedSecretAuthenticator{
		token: string(token),
		Log:   logFactory("ClientSharedSecretAuthenticator"),
	}
}

func (a *SharedSecretAuthenticator) AuthenticateClient(client *retryablehttp.Client) (*retryablehttp.Client, error) {
	return client, nil
}

func (a *SharedSecretAuthenticator) AuthenticateRequest(h http.Header) (http.Header, error) {
	h.Set(middleware.SharedSecretHeader, a.token)
	return h, nil
}

// APITokenAuthenticator authenticates API client requests using a bearer API token.
type APITokenAuthenticator struct {
	token string
	logger.Log
}

func NewAPITokenAuthenticator(token APIToken, logFactory logger.LogFactory) *APITokenAuthenticator {
	return &APITokenAuthenticator{
		token: string(token),
		Log:   logFactory("ClientAPITokenAuthenticator"),
	}
}

func (a *APITokenAuthenticator) AuthenticateClient(client *retryablehttp.Client) (*retryablehttp.Client, error) {
	return client, nil
}

func (a *APITokenAuthenticator) AuthenticateRequest(h http.Header) (http.Header, error) {
	h.Set("Authorization", "Bearer "+a.token)
	return h, nil
}

// TLSAuthenticator wraps another Authenticator, configuring the server CA and verification settings used
// when connecting over HTTPS.
type TLSAuthenticator struct {
	Authenticator
	ServerCACertPool   *x509.CertPool
	InsecureSkipVerify InsecureSkipVerify
	logger.Log
}

// NewTLSAuthenticator wraps inner so that HTTPS connections verify the server against the CA certificates
// in caCertFile (optional). insecureSkipVerify disables server verification entirely and is provided for
// development and testing only.
func NewTLSAuthenticator(
	inner Authenticator,
	caCertFile string,
	insecureSkipVerify InsecureSkipVerify,
	logFactory logger.LogFactory,
) (*TLSAuthenticator, error) {
	log := logFactory("ClientTLSAuthenticator")
	var caCertPool *x509.CertPool
	if caCertFile != "" {
		caCertPem, err := ioutil.ReadFile(caCertFile)
		if err != nil {
			return nil, fmt.Errorf("error reading CA certificate file: %w", err)
		}
		caCertPool = x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCertPem) {
			return nil, fmt.Errorf("error no certificates found in CA certificate file %q", caCertFile)
		}
	}
	if insecureSkipVerify {
		log.Warnf("Warning: insecure_skip_verify set; API client will not verify server certificate")
	}
	return &TLSAuthenticator{
		Authenticator:      inner,
		ServerCACertPool:   caCertPool,
		InsecureSkipVerify: insecureSkipVerify,
		Log:                log,
	}, nil
}

func (a *TLSAuthenticator) AuthenticateClient(client *retryablehttp.Client) (*retryablehttp.Client, error) {
	var err error
	if a.Authenticator != nil {
		client, err = a.Authenticator.AuthenticateClient(client)
		if err != nil {
			return nil, err
		}
	}
	// Make sure the HTTP client has an explicitly defined Transport object to set parameters against
	if client.HTTPClient.Transport == nil {
		client.HTTPClient.Transport = &http.Transport{}
	}
	transport, ok := client.HTTPClient.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("error unexpected HTTP transport type %T", client.HTTPClient.Transport)
	}
	transport.TLSClientConfig = &tls.Config{
		RootCAs:            a.ServerCACertPool,
		InsecureSkipVerify: a.InsecureSkipVerify.Bool(),
	}
	return client, nil
}

func (a *TLSAuthenticator) AuthenticateRequest(h http.Header) (http.Header, error) {
	if a.Authenticator == nil {
		return h, nil
	}
	return a.Authenticator.AuthenticateRequest(h)
}
