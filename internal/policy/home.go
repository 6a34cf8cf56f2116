package policy

// Canonical route identifiers used for redirects and post-login landing
// decisions.  These are the only routes the authorization layer ever points
// a client at.
const (
	RouteAdminHome      = "/admin/dashboard"
	RouteStaffHome      = "/staff/dashboard"
	RouteTechnicianHome = "/tecnico/dashboard"
	RoutePublicHome     = "/"
	RouteLogin          = "/login"
	RouteFallback       = "/home"
)

// homeRoutes is the registered level→route table.  Kept as a map rather
// than a switch so RegisteredHomeRoute can distinguish "has a home of its
// own" from the fallback case.
var homeRoutes = map[Level]string{
	LevelAdmin:      RouteAdminHome,
	LevelStaff:      RouteStaffHome,
	LevelTechnician: RouteTechnicianHome,
	LevelPublic:     RoutePublicHome,
}

// HomeRouteFor returns the landing route for a level.  Total: out-of-range
// input lands on the public home.
func HomeRouteFor(l Level) string {
	if r, ok := homeRoutes[l]; ok {
		return r
	}
	return RoutePublicHome
}

// RegisteredHomeRoute returns the route registered for a level, and whether
// one exists.  The gate uses this for browser redirects: an authenticated
// tier without a registered home is sent to RouteFallback instead.
func RegisteredHomeRoute(l Level) (string, bool) {
	r, ok := homeRoutes[l]
	return r, ok
}
