package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/assignment"
	"github.com/gtarallo/assistenza-tecnica/internal/middleware"
	"github.com/gtarallo/assistenza-tecnica/internal/model"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
	"github.com/gtarallo/assistenza-tecnica/internal/scoring"
)

// DashboardHandler decides where an authenticated identity lands and what
// its landing view contains.  The route comes from the level policy; the
// payload differs per tier.
type DashboardHandler struct {
	Directory    *assignment.Directory
	Malfunctions *repository.MalfunctionRepo
	Products     *repository.ProductRepo
}

func NewDashboardHandler(d *assignment.Directory, m *repository.MalfunctionRepo, p *repository.ProductRepo) *DashboardHandler {
	return &DashboardHandler{Directory: d, Malfunctions: m, Products: p}
}

// Home returns the landing decision for the caller: the canonical route for
// their level plus the data that view opens with.
func (h *DashboardHandler) Home(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	level := policy.Normalize(int(ident.Level))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payload, err := h.payloadFor(ctx, ident, level)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"level":   int(level),
		"label":   level.Label(),
		"home":    policy.HomeRouteFor(level),
		"payload": payload,
	})
}

func (h *DashboardHandler) payloadFor(ctx context.Context, ident *middleware.AuthIdentity, level policy.Level) (echo.Map, error) {
	now := time.Now().UTC()
	switch level {
	case policy.LevelAdmin:
		unassigned, err := h.Directory.Unassigned(ctx)
		if err != nil {
			return nil, err
		}
		urgent, err := h.urgentQueue(ctx, now)
		if err != nil {
			return nil, err
		}
		return echo.Map{
			"unassigned_products": mapProducts(unassigned),
			"urgent_malfunctions": urgent,
		}, nil

	case policy.LevelStaff:
		mine, err := h.Directory.ForStaff(ctx, ident.ID)
		if err != nil {
			return nil, err
		}
		queue, err := h.Malfunctions.ByAssignedStaff(ctx, ident.ID)
		if err != nil {
			return nil, err
		}
		return echo.Map{
			"assigned_products": mapProducts(mine),
			"open_malfunctions": mapMalfunctions(queue, now),
		}, nil

	case policy.LevelTechnician:
		urgent, err := h.urgentQueue(ctx, now)
		if err != nil {
			return nil, err
		}
		return echo.Map{"urgent_malfunctions": urgent}, nil

	default:
		products, err := h.Products.List(ctx)
		if err != nil {
			return nil, err
		}
		return echo.Map{"catalog_size": len(products)}, nil
	}
}

// urgentQueue filters the recent malfunctions down to the urgent ones,
// highest priority first by virtue of the severity points dominating.
func (h *DashboardHandler) urgentQueue(ctx context.Context, now time.Time) ([]malfunctionPart, error) {
	records, err := h.Malfunctions.List(ctx, 100)
	if err != nil {
		return nil, err
	}
	urgent := make([]model.Malfunction, 0, len(records))
	for _, m := range records {
		if scoring.IsUrgent(m) {
			urgent = append(urgent, m)
		}
	}
	return mapMalfunctions(urgent, now), nil
}
