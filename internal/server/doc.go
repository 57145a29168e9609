// Package server provides HTTP routing and middleware.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method-qualified patterns ("GET /notebooks/{id}/artifacts") on an
// [http.ServeMux], so wildcards are available through [http.Request.PathValue] and wrong methods get 405.
//
// # Current Usage
//
// The in-process fake platform in internal/testing is built on this router. Tests use it to stand in for the
// platform API when exercising the session bootstrap and the artifact poller end to end.
package server
