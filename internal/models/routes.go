package models

const (
	RouteRoot      = "/"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteNotebooks = "/notebooks"
	RouteModules   = "/modules"
)

// IsPublicRoute reports whether path renders without an authenticated session.
func IsPublicRoute(path string) bool {
	return path == RouteLogin || path == RouteRegister
}

// LandingPath returns the route an authenticated user is sent to from the root.
func LandingPath(role Role) string {
	if role.IsAdmin() {
		return RouteNotebooks
	}
	return RouteModules
}
