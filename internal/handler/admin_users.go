package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/config"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
)

// AdminUserHandler implements the level-4-gated identity management
// endpoints: creating accounts at any tier, changing levels, deactivating,
// and listing the staff directory.
type AdminUserHandler struct {
	Cfg        config.Config
	Identities *repository.IdentityRepo
}

func NewAdminUserHandler(cfg config.Config, i *repository.IdentityRepo) *AdminUserHandler {
	return &AdminUserHandler{Cfg: cfg, Identities: i}
}

type createUserReq struct {
	Handle    string `json:"handle"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Level     int    `json:"level"`
}
type updateLevelReq struct {
	Level int `json:"level"`
}
type assignCenterReq struct {
	CenterID *uint64 `json:"center_id"` // null detaches the identity
}

// Create inserts an identity at the requested level.  Unlike self-service
// registration, any of the four tiers is allowed here; a value outside the
// defined set is rejected instead of silently normalized, since an admin
// typo should surface.
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Handle = strings.ToLower(strings.TrimSpace(req.Handle))
	if req.Handle == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle/password required"})
	}
	level := policy.Level(req.Level)
	if !level.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "level must be between 1 and 4"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Identities.Create(ctx, req.Handle, req.Password, req.FirstName, req.LastName, level, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrHandleExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "handle already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create identity failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":     uid,
		"handle": req.Handle,
		"level":  int(level),
		"label":  level.Label(),
	})
}

// UpdateLevel changes an identity's access tier.
func (h *AdminUserHandler) UpdateLevel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateLevelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	level := policy.Level(req.Level)
	if !level.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "level must be between 1 and 4"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ident, err := h.Identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "identity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Identities.UpdateLevel(ctx, ident.ID, level); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":    ident.ID,
		"level": int(level),
		"label": level.Label(),
	})
}

// Deactivate soft-retires an identity; the record survives for audit and
// authorship references.
func (h *AdminUserHandler) Deactivate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Identities.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "identity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Identities.Deactivate(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignCenter attaches an identity to a service center, or detaches it
// with center_id:null.
func (h *AdminUserHandler) AssignCenter(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req assignCenterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Identities.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "identity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Identities.AssignCenter(ctx, id, req.CenterID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign center failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "center_id": req.CenterID})
}

// ListStaff exposes the staff directory: active level-3 identities, the
// valid targets for product assignment.
func (h *AdminUserHandler) ListStaff(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	staff, err := h.Identities.ListByLevel(ctx, policy.LevelStaff)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]echo.Map, 0, len(staff))
	for _, s := range staff {
		out = append(out, echo.Map{
			"id":     s.ID,
			"handle": s.Handle,
			"name":   s.DisplayName(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"staff": out})
}
