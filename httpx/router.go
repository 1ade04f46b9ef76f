package httpx

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Route is one entry of a route table. Path is relative to the Router prefix.
type Route struct {
	Method     string
	Path       string
	Handler    HandlerFunc
	Middleware []MiddlewareFunc
}

func Get(path string, h HandlerFunc, mw ...MiddlewareFunc) Route {
	return Route{Method: http.MethodGet, Path: path, Handler: h, Middleware: mw}
}

func Post(path string, h HandlerFunc, mw ...MiddlewareFunc) Route {
	return Route{Method: http.MethodPost, Path: path, Handler: h, Middleware: mw}
}

func Delete(path string, h HandlerFunc, mw ...MiddlewareFunc) Route {
	return Route{Method: http.MethodDelete, Path: path, Handler: h, Middleware: mw}
}

// RegisterRoutes mounts routes at the root of a.
func RegisterRoutes(a *App, routes ...Route) {
	NewRouter(a, "").Mount(routes...)
}

// Router registers routes under a shared prefix and middleware stack.
type Router struct {
	g      *echo.Group
	prefix string
}

// NewRouter creates a router under an optional prefix with optional middleware.
// A nil App yields a Router that ignores registrations.
func NewRouter(a *App, prefix string, mw ...MiddlewareFunc) *Router {
	if a == nil || a.e == nil {
		return &Router{}
	}
	return &Router{g: a.e.Group(prefix, mw...), prefix: prefix}
}

// Prefix reports the path prefix shared by the router's routes.
func (r *Router) Prefix() string { return r.prefix }

// Mount registers a route table. Incomplete entries are skipped.
func (r *Router) Mount(routes ...Route) *Router {
	for _, rt := range routes {
		r.add(rt.Method, rt.Path, rt.Handler, rt.Middleware...)
	}
	return r
}

func (r *Router) GET(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.add(http.MethodGet, path, h, mw...)
	return r
}

func (r *Router) POST(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.add(http.MethodPost, path, h, mw...)
	return r
}

func (r *Router) DELETE(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.add(http.MethodDelete, path, h, mw...)
	return r
}

func (r *Router) add(method, path string, h HandlerFunc, mw ...MiddlewareFunc) {
	if r.g == nil || h == nil || path == "" || method == "" {
		return
	}
	r.g.Add(strings.ToUpper(method), path, h, mw...)
}

// Routes lists the registered routes as "METHOD /path", sorted by path.
func (a *App) Routes() []string {
	routes := a.e.Routes()
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	out := make([]string, 0, len(routes))
	for _, rt := range routes {
		if rt.Method == echo.RouteNotFound {
			continue
		}
		out = append(out, rt.Method+" "+rt.Path)
	}
	return out
}
