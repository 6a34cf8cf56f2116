package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtarallo/assistenza-tecnica/internal/audit"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
	"github.com/gtarallo/assistenza-tecnica/internal/utils"
)

const testSecret = "gate-test-secret"

// memoryRecorder captures audit events for assertions.
type memoryRecorder struct {
	events []audit.AuthEvent
}

func (r *memoryRecorder) Record(_ context.Context, ev audit.AuthEvent) {
	r.events = append(r.events, ev)
}

// newGateServer builds an echo instance with identity resolution and one
// route per level, mirroring how the router registers gates.
func newGateServer(rec audit.Recorder) *echo.Echo {
	e := echo.New()
	e.Use(ResolveIdentity(testSecret))
	gate := NewGate(rec)
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/any", ok, gate.RequireAuthenticated())
	for lvl := 1; lvl <= 4; lvl++ {
		e.GET(fmt.Sprintf("/level%d", lvl), ok, gate.RequireLevelValue(lvl))
	}
	return e
}

func tokenFor(t *testing.T, id uint64, handle string, level policy.Level) string {
	t.Helper()
	access, err := utils.NewAccessToken(testSecret, id, handle, level, 5)
	require.NoError(t, err)
	return "Bearer " + access.Token
}

func doRequest(e *echo.Echo, path, authHeader string, asAPI bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if asAPI {
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

// The 4x4 matrix: authorize allows iff userLevel >= requiredLevel.
func TestGateMatrix(t *testing.T) {
	for user := 1; user <= 4; user++ {
		for required := 1; required <= 4; required++ {
			rec := &memoryRecorder{}
			e := newGateServer(rec)
			auth := tokenFor(t, uint64(user), fmt.Sprintf("user%d", user), policy.Level(user))

			rr := doRequest(e, fmt.Sprintf("/level%d", required), auth, true)
			if user >= required {
				assert.Equal(t, http.StatusOK, rr.Code, "user %d on level %d route", user, required)
			} else {
				assert.Equal(t, http.StatusForbidden, rr.Code, "user %d on level %d route", user, required)
			}
		}
	}
}

// End-to-end denial: level-2 identity, level-3 API route.
func TestGateAPIDenialCarriesContext(t *testing.T) {
	rec := &memoryRecorder{}
	e := newGateServer(rec)
	auth := tokenFor(t, 7, "marco.tech", policy.LevelTechnician)

	rr := doRequest(e, "/level3", auth, true)
	require.Equal(t, http.StatusForbidden, rr.Code)

	var body struct {
		Success       bool   `json:"success"`
		Message       string `json:"message"`
		UserLevel     int    `json:"user_level"`
		RequiredLevel int    `json:"required_level"`
		Redirect      string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Message)
	assert.Equal(t, 2, body.UserLevel)
	assert.Equal(t, 3, body.RequiredLevel)
	// Redirect points at the caller's own home, not the required level's.
	assert.Equal(t, policy.RouteTechnicianHome, body.Redirect)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, audit.KindDenied, ev.Kind)
	assert.Equal(t, uint64(7), ev.ActorID)
	assert.Equal(t, "marco.tech", ev.Handle)
	assert.Equal(t, 2, ev.UserLevel)
	assert.Equal(t, 3, ev.RequiredLevel)
	assert.Equal(t, "/level3", ev.Path)
	assert.True(t, ev.IsAjax)
}

func TestGateUnauthenticatedAPI(t *testing.T) {
	rec := &memoryRecorder{}
	e := newGateServer(rec)

	rr := doRequest(e, "/any", "", true)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var body struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, policy.RouteLogin, body.Redirect)
	assert.Empty(t, rec.events, "no actor, no audit event")
}

func TestGateUnauthenticatedBrowserRedirectsToLogin(t *testing.T) {
	e := newGateServer(&memoryRecorder{})

	rr := doRequest(e, "/any", "", false)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, policy.RouteLogin, rr.Header().Get("Location"))
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "flash=")
}

// A tampered/garbage token resolves to no identity at all: fail closed.
func TestGateRejectsTamperedToken(t *testing.T) {
	e := newGateServer(&memoryRecorder{})

	rr := doRequest(e, "/any", "Bearer not-a-real-token", true)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGateBrowserDenialRedirectsToOwnHome(t *testing.T) {
	rec := &memoryRecorder{}
	e := newGateServer(rec)
	auth := tokenFor(t, 7, "marco.tech", policy.LevelTechnician)

	rr := doRequest(e, "/level4", auth, false)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, policy.RouteTechnicianHome, rr.Header().Get("Location"))
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "flash=")

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.KindDenied, rec.events[0].Kind)
	assert.False(t, rec.events[0].IsAjax)
}

// Below the technician tier the browser fallback is always the public home,
// never a privileged dashboard.
func TestGateBrowserDenialLowTierFallsBackToPublicHome(t *testing.T) {
	rec := &memoryRecorder{}
	e := newGateServer(rec)
	auth := tokenFor(t, 3, "guest.user", policy.LevelPublic)

	rr := doRequest(e, "/level3", auth, false)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, policy.RoutePublicHome, rr.Header().Get("Location"))
}

func TestGateRecordsAuthorizedEvents(t *testing.T) {
	rec := &memoryRecorder{}
	e := newGateServer(rec)
	auth := tokenFor(t, 1, "admin", policy.LevelAdmin)

	rr := doRequest(e, "/level4", auth, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.KindAuthorized, rec.events[0].Kind)
	assert.Equal(t, 4, rec.events[0].UserLevel)
}

// RequireAuthenticated defaults to the lowest tier: any valid identity passes.
func TestGateDefaultLevelIsMerelyLoggedIn(t *testing.T) {
	for lvl := 1; lvl <= 4; lvl++ {
		e := newGateServer(&memoryRecorder{})
		auth := tokenFor(t, uint64(lvl), fmt.Sprintf("user%d", lvl), policy.Level(lvl))
		rr := doRequest(e, "/any", auth, true)
		assert.Equal(t, http.StatusOK, rr.Code, "level %d should pass the default gate", lvl)
	}
}
