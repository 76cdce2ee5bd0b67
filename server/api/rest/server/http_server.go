package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/buildbeaver/connections/common/certificates"
	"github.com/buildbeaver/connections/common/logger"
)

type TLSConfig struct {
	CertificateFile string
	PrivateKeyFile  string
	// AutogenerateHosts is a comma-separated list of hostnames and IP addresses. If set, a self-signed
	// certificate for these hosts is written to CertificateFile and PrivateKeyFile when neither exists.
	AutogenerateHosts string
}

// EnsureCertificate generates a self-signed certificate if autogeneration is enabled and no
// certificate exists yet.
func (c *TLSConfig) EnsureCertificate(log logger.Log) error {
	if c.CertificateFile == "" || c.PrivateKeyFile == "" {
		return fmt.Errorf("error TLS requires both a certificate file and a private key file")
	}
	if c.AutogenerateHosts == "" {
		return nil
	}
	created, err := certificates.GenerateServerSelfSignedCertificate(
		certificates.CertificateFile(c.CertificateFile),
		certificates.PrivateKeyFile(c.PrivateKeyFile),
		c.AutogenerateHosts,
		"Connections Server")
	if err != nil {
		return fmt.Errorf("error generating self-signed certificate: %w", err)
	}
	if created {
		log.Warnf("Generated self-signed certificate for %s at %s", c.AutogenerateHosts, c.CertificateFile)
	}
	return nil
}

type HTTPServerConfig struct {
	Address           string
	TLSConfig         *TLSConfig
	ReadHeaderTimeout time.Duration
}

// APIServer is implemented by HTTPServer and HTTPTestServer
type APIServer interface {
	Start()
	Stop(ctx context.Context) error
	GetServerURL() string
	GetHTTPServer() *http.Server
}

type HTTPServerFactory = func(handler http.Handler, config HTTPServerConfig, log logger.Log) (APIServer, error)

func RealHTTPServerFactory() HTTPServerFactory {
	return func(handler http.Handler, config HTTPServerConfig, log logger.Log) (APIServer, error) {
		return NewHTTPServer(handler, config, log)
	}
}

// HTTPServer is an HTTP(S) server that can serve connections API requests.
type HTTPServer struct {
	httpServer *http.Server
	config     HTTPServerConfig
	log        logger.Log
}

func NewHTTPServer(
	handler http.Handler,
	config HTTPServerConfig,
	log logger.Log,
) (*HTTPServer, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("error server address must be set")
	}
	readHeaderTimeout := config.ReadHeaderTimeout
	if readHeaderTimeout == 0 {
		readHeaderTimeout = 10 * time.Second
	}
	httpServer := &http.Server{
		Addr:              config.Address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if config.TLSConfig != nil {
		err := config.TLSConfig.EnsureCertificate(log)
		if err != nil {
			return nil, err
		}
		httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &HTTPServer{
		httpServer: httpServer,
		config:     config,
		log:        log,
	}, nil
}

// Start starts listening on the API server HTTP port.
// ListenAndServe is called on a goroutine so this function returns immediately.
func (s *HTTPServer) Start() {
	go func() {
		var err error
		if s.config.TLSConfig != nil {
			s.log.Infof("HTTPS listening on %s", s.httpServer.Addr)
			err = s.httpServer.ListenAndServeTLS(s.config.TLSConfig.CertificateFile, s.config.TLSConfig.PrivateKeyFile)
		} else {
			s.log.Infof("HTTP listening on %s", s.httpServer.Addr)
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			// If we can't start the HTTP server then log an error and terminate the process
			s.log.Fatalf("Error starting server: %s", err)
		}
	}()
}

// Stop shuts down the HTTP server gracefully, allowing all existing HTTP requests to complete up until
// the context expires.
// Shutdown should only be called once.
func (s *HTTPServer) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	return nil
}

func (s *HTTPServer) GetServerURL() string {
	if s.config.TLSConfig != nil {
		return fmt.Sprintf("https://%s", s.httpServer.Addr)
	}
	return fmt.Sprintf("http://%s", s.httpServer.Addr)
}

func (s *HTTPServer) GetHTTPServer() *http.Server {
	return s.httpServer
}
