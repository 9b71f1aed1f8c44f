package router

import (
	"github.com/searchktools/pool-server/core/http"
)

// Router turns a decoded request into a response.
// Implementations must be total and free of side effects; the engine calls
// Route once per request from whichever worker owns the connection.
type Router interface {
	Route(req *http.Request) *http.Response
}

// RouterFunc adapts a plain function to the Router interface
type RouterFunc func(req *http.Request) *http.Response

// Route calls f(req)
func (f RouterFunc) Route(req *http.Request) *http.Response {
	return f(req)
}

// ResponseFunc builds the response for one route
type ResponseFunc func(req *http.Request) *http.Response

type routeKey struct {
	method http.Method
	path   string
}

// Table is a static routing table keyed by exact (method, path).
// Routes are registered up front; Route only reads the table, so a Table is
// safe for concurrent use once built.
type Table struct {
	routes   map[routeKey]ResponseFunc
	notFound ResponseFunc
}

// NewTable creates an empty table that answers 404 for everything
func NewTable() *Table {
	return &Table{
		routes: make(map[routeKey]ResponseFunc),
		notFound: func(*http.Request) *http.Response {
			return http.NotFound()
		},
	}
}

// Default returns the server's built-in routes: GET /sleep answers 200 OK
func Default() *Table {
	t := NewTable()
	t.GET("/sleep", func(*http.Request) *http.Response {
		return http.NewResponse()
	})
	return t
}

// Add registers fn for method and path
func (t *Table) Add(method http.Method, path string, fn ResponseFunc) {
	if path == "" || path[0] != '/' {
		panic("path must begin with '/'")
	}
	t.routes[routeKey{method, path}] = fn
}

// GET registers a GET route
func (t *Table) GET(path string, fn ResponseFunc) {
	t.Add(http.MethodGet, path, fn)
}

// POST registers a POST route
func (t *Table) POST(path string, fn ResponseFunc) {
	t.Add(http.MethodPost, path, fn)
}

// NotFound replaces the fallback used for unmatched requests
func (t *Table) NotFound(fn ResponseFunc) {
	t.notFound = fn
}

// Len returns the number of registered routes
func (t *Table) Len() int {
	return len(t.routes)
}

// Route looks up (method, path) and builds the response.
// Every response leaving the table carries a Content-Length matching its body.
func (t *Table) Route(req *http.Request) *http.Response {
	fn, ok := t.routes[routeKey{req.Method, req.Path()}]
	if !ok {
		fn = t.notFound
	}

	resp := fn(req)
	if resp == nil {
		resp = http.NotFound()
	}
	resp.SetContentLength()
	return resp
}
