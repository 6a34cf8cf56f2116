package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/config"
	"github.com/gtarallo/assistenza-tecnica/internal/middleware"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
	"github.com/gtarallo/assistenza-tecnica/internal/utils"
)

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	Cfg        config.Config
	Identities *repository.IdentityRepo
	Tokens     *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, i *repository.IdentityRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Identities: i, Tokens: t}
}

// ----- DTOs -----
// Request structs list exactly the fields each operation accepts; there is
// no way to post a level or an is_active flag through them.

type registerReq struct {
	Handle    string `json:"handle"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type loginReq struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type identityPart struct {
	ID     uint64 `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Label  string `json:"level_label"`
}
type authResp struct {
	User    identityPart `json:"user"`
	Access  tokenPart    `json:"access"`
	Refresh tokenPart    `json:"refresh"`
	Home    string       `json:"home"` // landing route for the user's level
}

// Register creates a self-service account at the technician tier and
// returns tokens immediately.  Higher tiers are only created through the
// admin endpoints.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Handle = strings.ToLower(strings.TrimSpace(req.Handle))
	if req.Handle == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	level := policy.LevelTechnician
	uid, err := h.Identities.Create(ctx, req.Handle, req.Password, req.FirstName, req.LastName, level, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrHandleExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "handle already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create identity failed"})
	}

	return h.issueTokens(ctx, c, http.StatusCreated, identityPart{
		ID:     uid,
		Handle: req.Handle,
		Name:   strings.TrimSpace(req.FirstName + " " + req.LastName),
		Level:  int(level),
		Label:  level.Label(),
	})
}

// Login verifies credentials and returns a fresh token pair plus the
// landing route decided by the level policy.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Handle = strings.ToLower(strings.TrimSpace(req.Handle))
	if req.Handle == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ident, err := h.Identities.GetByHandle(ctx, req.Handle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ident.IsActive || !utils.VerifyPassword(ident.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issueTokens(ctx, c, http.StatusOK, identityPart{
		ID:     ident.ID,
		Handle: ident.Handle,
		Name:   ident.DisplayName(),
		Level:  int(ident.Level),
		Label:  ident.Level.Label(),
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	identityID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	ident, err := h.Identities.GetByID(ctx, identityID)
	if err != nil || !ident.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	return h.issueTokens(ctx, c, http.StatusOK, identityPart{
		ID:     ident.ID,
		Handle: ident.Handle,
		Name:   ident.DisplayName(),
		Level:  int(ident.Level),
		Label:  ident.Level.Label(),
	})
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	identityID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	ident, err := h.Identities.GetByID(ctx, identityID)
	if err != nil || !ident.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, ident.ID, ident.Handle, ident.Level, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes sessions.  A refresh token in the body terminates that one
// session; an authenticated call without a body token terminates all of the
// caller's sessions.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	if ident := middleware.CurrentIdentity(c); ident != nil {
		if err := h.Tokens.RevokeAllForIdentity(ctx, ident.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token or bearer token required"})
}

// Me returns the authenticated identity's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	full, err := h.Identities.GetByID(ctx, ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load identity failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": identityPart{
			ID:     full.ID,
			Handle: full.Handle,
			Name:   full.DisplayName(),
			Level:  int(full.Level),
			Label:  full.Level.Label(),
		},
		"home": policy.HomeRouteFor(full.Level),
	})
}

// issueTokens mints the access/refresh pair, stores the refresh hash and
// writes the auth response.
func (h *AuthHandler) issueTokens(ctx context.Context, c echo.Context, status int, user identityPart) error {
	level := policy.Normalize(user.Level)
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Handle, level, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(status, authResp{
		User:    user,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
		Home:    policy.HomeRouteFor(level),
	})
}
