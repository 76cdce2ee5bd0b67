package server

import (
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/buildbeaver/connections/common/logger"
	connmiddleware "github.com/buildbeaver/connections/server/api/rest/middleware"
	"github.com/buildbeaver/connections/server/api/rest/routes"
	"github.com/buildbeaver/connections/server/services"
)

type AppAPIServerConfig struct {
	HTTPServerConfig
	// CORSAllowedOrigins lists the browser origins allowed to call the API. CORS is disabled when empty.
	CORSAllowedOrigins []string
}

type AppAPIServer struct {
	APIServer
}

func NewAppAPIServer(coreAPI *AppAPIRouter, config AppAPIServerConfig, httpServerFactory HTTPServerFactory, logFactory logger.LogFactory) (*AppAPIServer, error) {
	httpServer, err := httpServerFactory(coreAPI, config.HTTPServerConfig, logFactory("AppAPIServer"))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP server: %w", err)
	}
	return &AppAPIServer{
		APIServer: httpServer,
	}, nil
}

type AppAPIRouter struct {
	chi.Router
}

func NewAppAPIRouter(
	config AppAPIServerConfig,
	project *ProjectAPI,
	connection *ConnectionAPI,
	runtime *RuntimeAPI,
	root *RootAPI,
	authenticationService services.AuthenticationService,
	logFactory logger.LogFactory) *AppAPIRouter {

	logger := logFactory("AppAPIRouter").
		WithField("version", "v1")

	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true})
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(connmiddleware.Metrics)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if len(config.CORSAllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   config.CORSAllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", connmiddleware.SharedSecretHeader},
				ExposedHeaders:   []string{"Id", "Location", "ETag"},
				AllowCredentials: false,
				MaxAge:           300, // Maximum value not ignored by any of major browsers
			}))
		}

		r.Route("/v1", func(r chi.Router) {
			// Public routes that can be accessed without auth
			r.Group(func(r chi.Router) {
				r.Get("/", root.GetRootDocument)
			})

			// Everything else is authenticated with an API token or the shared secret
			r.Group(func(r chi.Router) {
				r.Use(connmiddleware.MakeJWTAuthenticator(logger, authenticationService))
				r.Use(connmiddleware.MakeSharedSecretAuthenticator(logger, authenticationService))
				r.Use(connmiddleware.MakeMustAuthenticate(logger))

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", project.List)
					r.Post("/", project.GetOrCreate)
					r.Route(fmt.Sprintf("/{%s}", routes.ProjectIDParam), func(r chi.Router) {
						r.Get("/", project.Get)
						r.Get("/global-connections", project.ListConnections)
					})
				})
				r.Route("/global-connections", func(r chi.Router) {
					r.Post("/", connection.Create)
					r.Route(fmt.Sprintf("/{%s}", routes.ConnectionIDParam), func(r chi.Router) {
						r.Get("/", connection.Get)
						r.Delete("/", connection.Delete)
					})
				})
				r.Route("/runtime/connections", func(r chi.Router) {
					r.Get(fmt.Sprintf("/{%s}", routes.ConnectionExternalParam), runtime.GetConnection)
				})
			})
		})
	})
	return &AppAPIRouter{Router: r}
}
