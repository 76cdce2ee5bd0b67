package servertest

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/server/api/rest/server"
)

func HTTPTestServerFactory() server.HTTPServerFactory {
	return func(handler http.Handler, config server.HTTPServerConfig, log logger.Log) (server.APIServer, error) {
		return NewHTTPTestServer(handler, config, log)
	}
}

// HTTPTestServer is an HTTP(S) test server that can serve connections API requests.
// The HTTPTestServer is created using the Go httptest package, and will run on a random port.
type HTTPTestServer struct {
	testServer *httptest.Server
	config     server.HTTPServerConfig
	log        logger.Log
}

func NewHTTPTestServer(
	handler http.Handler,
	config server.HTTPServerConfig,
	log logger.Log,
) (*HTTPTestServer, error) {
	testServer := httptest.NewUnstartedServer(handler)
	if config.TLSConfig != nil {
		err := config.TLSConfig.EnsureCertificate(log)
		if err != nil {
			return nil, err
		}
		cert, err := tls.LoadX509KeyPair(config.TLSConfig.CertificateFile, config.TLSConfig.PrivateKeyFile)
		if err != nil {
			return nil, err
		}
		// Specify the server certificate in the config to override the default test server behaviour
		testServer.TLS = &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
	}
	return &HTTPTestServer{
		testServer: testServer,
		config:     config,
		log:        log,
	}, nil
}

// Start starts listening on a random port.
// The server is started on a goroutine so this function returns immediately.
func (s *HTTPTestServer) Start() {
	if s.config.TLSConfig != nil {
		s.testServer.StartTLS()
		s.log.Infof("HTTPS listening on URL %s", s.GetServerURL())
	} else {
		s.testServer.Start()
		s.log.Infof("HTTP listening on URL %s", s.GetServerURL())
	}
}

// Stop shuts down the test server, blocking until all outstanding requests on this server have completed.
func (s *HTTPTestServer) Stop(ctx context.Context) error {
	s.testServer.Close()
	return nil
}

func (s *HTTPTestServer) GetServerURL() string {
	return s.testServer.URL
}

func (s *HTTPTestServer) GetHTTPServer() *http.Server {
	return s.testServer.Config
}
