package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/audit"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
)

// Gate enforces the level hierarchy on every protected route.  Each request
// moves from unchecked to exactly one of allowed or denied; on denial the
// gate always records an audit event before responding, and any ambiguity
// in the identity state resolves to deny.
type Gate struct {
	rec audit.Recorder
}

func NewGate(rec audit.Recorder) *Gate { return &Gate{rec: rec} }

// denyResponse is the JSON body API callers receive on a 403.
type denyResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	UserLevel     int    `json:"user_level"`
	RequiredLevel int    `json:"required_level"`
	Redirect      string `json:"redirect"`
}

// RequireLevel returns a middleware that admits only identities satisfying
// the required level.
//
// Unauthenticated callers are turned away without an audit event (there is
// no actor to attribute): API calls get a 401 with a login redirect hint,
// browser navigations get redirected to the login page with a flash
// message.
//
// Authenticated callers below the required level are denied with a recorded
// audit event.  API calls get a 403 carrying both levels and a redirect to
// the caller's own home route; browser navigations are redirected to their
// tier's home (or the public home below the technician tier), again with a
// flash message.  Audit recording is best-effort and never alters the
// decision.
func (g *Gate) RequireLevel(required policy.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := CurrentIdentity(c)
			if ident == nil {
				msg := "Devi effettuare l'accesso per continuare."
				if isAPIRequest(c) {
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success":  false,
						"message":  msg,
						"redirect": policy.RouteLogin,
					})
				}
				setFlash(c, msg)
				return c.Redirect(http.StatusFound, policy.RouteLogin)
			}

			userLevel := policy.Normalize(int(ident.Level))
			if userLevel.Satisfies(required) {
				g.record(c, audit.KindAuthorized, ident, required)
				return next(c)
			}

			// Denials are security-relevant: record before responding.
			g.record(c, audit.KindDenied, ident, required)
			msg := policy.DenialMessage(required)

			if isAPIRequest(c) {
				return c.JSON(http.StatusForbidden, denyResponse{
					Success:       false,
					Message:       msg,
					UserLevel:     int(userLevel),
					RequiredLevel: int(required),
					Redirect:      policy.HomeRouteFor(userLevel),
				})
			}

			target := policy.RoutePublicHome
			if userLevel >= policy.LevelTechnician {
				if home, ok := policy.RegisteredHomeRoute(userLevel); ok {
					target = home
				} else {
					target = policy.RouteFallback
				}
			}
			setFlash(c, msg)
			return c.Redirect(http.StatusFound, target)
		}
	}
}

// RequireLevelValue is RequireLevel for callers holding a raw integer; a
// garbage value falls back to the lowest tier instead of erroring.
func (g *Gate) RequireLevelValue(v int) echo.MiddlewareFunc {
	return g.RequireLevel(policy.Normalize(v))
}

// RequireAuthenticated gates a route on "merely logged in": the default
// when no explicit level is specified.
func (g *Gate) RequireAuthenticated() echo.MiddlewareFunc {
	return g.RequireLevel(policy.LevelPublic)
}

func (g *Gate) record(c echo.Context, kind string, ident *AuthIdentity, required policy.Level) {
	g.rec.Record(c.Request().Context(), audit.AuthEvent{
		Kind:          kind,
		ActorID:       ident.ID,
		Handle:        ident.Handle,
		UserLevel:     int(ident.Level),
		RequiredLevel: int(required),
		Path:          c.Request().URL.Path,
		Origin:        c.RealIP(),
		IsAjax:        isAPIRequest(c),
	})
}

// isAPIRequest distinguishes JSON/XHR callers from browser navigations so
// denials can answer with a status code instead of a redirect.
func isAPIRequest(c echo.Context) bool {
	r := c.Request()
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// setFlash attaches the denial message as transient state for the next
// rendered page.  A short-lived cookie keeps the gate itself stateless.
func setFlash(c echo.Context, msg string) {
	c.SetCookie(&http.Cookie{
		Name:   "flash",
		Value:  url.QueryEscape(msg),
		Path:   "/",
		MaxAge: 60,
	})
}
