package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
)

// TestServer runs a handler on a loopback port for round-trip tests.
type TestServer struct{ *httptest.Server }

func NewTestServer(handler http.Handler) *TestServer {
	return &TestServer{httptest.NewServer(handler)}
}

// NewServerTestServer serves a configured Server, middleware and error
// handler included.
func NewServerTestServer(s *Server) *TestServer {
	if s == nil {
		return nil
	}
	return NewTestServer(s.Handler())
}

// NewAppTestServer starts a TestServer serving a bare App.
func NewAppTestServer(a *App) *TestServer {
	if a == nil {
		return nil
	}
	return NewTestServer(a.e)
}

func (ts *TestServer) BaseURL() string {
	if ts == nil || ts.Server == nil {
		return ""
	}
	return ts.URL
}

// URLFor joins path onto the base URL.
func (ts *TestServer) URLFor(path string) string {
	return ts.BaseURL() + "/" + strings.TrimPrefix(path, "/")
}

// NewClient returns a Client rooted at the server URL; opts may override it.
func (ts *TestServer) NewClient(opts ...ClientOption) *Client {
	return NewClient(append([]ClientOption{WithBaseURL(ts.BaseURL())}, opts...)...)
}
