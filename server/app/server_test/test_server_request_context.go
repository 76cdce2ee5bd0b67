package server_test

import "github.com/buildbeaver/connections/server/api/rest/routes"

type testServerRequestContext struct {
	baseURL string
}

// NewTestServerRequestContext returns a request context whose links point back at the test server,
// for comparing against the links in documents the server returned.
func NewTestServerRequestContext(app *TestServer) routes.RequestContext {
	return &testServerRequestContext{baseURL: app.CoreAPIServer.GetServerURL()}
}

func (c *testServerRequestContext) BaseURL() string {
	return c.baseURL
}
