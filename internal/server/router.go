package server

import (
	"net/http"
	"path"
	"sort"
	"strings"
)

var _ Router = (*BasicRouter)(nil)

// BasicRouter registers method-qualified patterns on an [http.ServeMux].
//
// Routers returned by [BasicRouter.Group] share the mux and route table of their parent but keep their own prefix
// and a copy of the middleware stack at the time of grouping.
type BasicRouter struct {
	mux         *http.ServeMux
	prefix      string
	middlewares []Middleware
	routes      *[]string
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux(), routes: new([]string)}
}

// Use appends middleware. Only handlers registered after the call are wrapped, outermost first.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Group returns a router that registers every path under prefix, e.g. Group("/api").
func (r *BasicRouter) Group(prefix string) *BasicRouter {
	return &BasicRouter{
		mux:         r.mux,
		prefix:      r.join(prefix),
		middlewares: append([]Middleware(nil), r.middlewares...),
		routes:      r.routes,
	}
}

// Handle registers handler for method and pattern. Pattern wildcards are read with [http.Request.PathValue].
func (r *BasicRouter) Handle(method, pattern string, handler http.Handler) {
	full := method + " " + r.join(pattern)
	*r.routes = append(*r.routes, full)
	r.mux.Handle(full, r.Apply(handler))
}

// HandleFunc registers fn for method and pattern.
func (r *BasicRouter) HandleFunc(method, pattern string, fn http.HandlerFunc) {
	r.Handle(method, pattern, fn)
}

// Routes lists every registered "METHOD /path" pattern, sorted.
func (r *BasicRouter) Routes() []string {
	routes := append([]string(nil), *r.routes...)
	sort.Strings(routes)
	return routes
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler so the first registered middleware runs first.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	return handler
}

func (r *BasicRouter) join(pattern string) string {
	if r.prefix == "" {
		return pattern
	}
	joined := path.Join(r.prefix, pattern)
	if strings.HasSuffix(pattern, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}
