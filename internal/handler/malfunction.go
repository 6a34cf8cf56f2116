package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/middleware"
	"github.com/gtarallo/assistenza-tecnica/internal/model"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
	"github.com/gtarallo/assistenza-tecnica/internal/scoring"
)

// MalfunctionHandler serves malfunction reports and their computed scores.
type MalfunctionHandler struct {
	Malfunctions *repository.MalfunctionRepo
	Products     *repository.ProductRepo
}

func NewMalfunctionHandler(m *repository.MalfunctionRepo, p *repository.ProductRepo) *MalfunctionHandler {
	return &MalfunctionHandler{Malfunctions: m, Products: p}
}

type createMalfunctionReq struct {
	ProductID        uint64 `json:"product_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Severity         string `json:"severity"`
	Difficulty       string `json:"difficulty"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}
type classifyReq struct {
	Severity         string `json:"severity"`
	Difficulty       string `json:"difficulty"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// malfunctionPart is the list/detail projection: the stored record plus
// every score the engine derives from it.
type malfunctionPart struct {
	ID               uint64        `json:"id"`
	ProductID        uint64        `json:"product_id"`
	Title            string        `json:"title"`
	Severity         string        `json:"severity"`
	Difficulty       string        `json:"difficulty"`
	ReportCount      int           `json:"report_count"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	FirstSeen        time.Time     `json:"first_seen"`
	LastSeen         time.Time     `json:"last_seen"`
	Priority         int           `json:"priority"`
	Urgent           bool          `json:"urgent"`
	RequiresExpert   bool          `json:"requires_expert"`
	Trend            scoring.Trend `json:"trend"`
	FrequencyRate    float64       `json:"frequency_rate"`
}

func toMalfunctionPart(m model.Malfunction, now time.Time) malfunctionPart {
	return malfunctionPart{
		ID:               m.ID,
		ProductID:        m.ProductID,
		Title:            m.Title,
		Severity:         string(m.Severity),
		Difficulty:       string(m.Difficulty),
		ReportCount:      m.ReportCount,
		EstimatedMinutes: m.EstimatedMinutes,
		FirstSeen:        m.FirstSeen,
		LastSeen:         m.LastSeen,
		Priority:         scoring.Priority(m),
		Urgent:           scoring.IsUrgent(m),
		RequiresExpert:   scoring.RequiresExpert(m),
		Trend:            scoring.TrendAt(m, now),
		FrequencyRate:    scoring.FrequencyRate(m),
	}
}

// Create records a new malfunction for a product.  The record is validated
// against the scoring invariants before it is written; a malformed record
// is rejected, never clamped.
func (h *MalfunctionHandler) Create(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createMalfunctionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProductID == 0 || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id/title required"})
	}
	severity, ok := model.ParseSeverity(req.Severity)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "severity must be one of bassa|media|alta|critica"})
	}
	difficulty, ok := model.ParseDifficulty(req.Difficulty)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "difficulty must be one of facile|media|difficile|esperto"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Products.GetByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	now := time.Now().UTC()
	m := model.Malfunction{
		ProductID:        req.ProductID,
		Title:            req.Title,
		Description:      req.Description,
		Severity:         severity,
		Difficulty:       difficulty,
		ReportCount:      1,
		EstimatedMinutes: req.EstimatedMinutes,
		FirstSeen:        now,
		LastSeen:         now,
		CreatedBy:        ident.ID,
	}
	if err := scoring.Validate(m); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	id, err := h.Malfunctions.Create(ctx, m)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create malfunction failed"})
	}
	m.ID = id
	return c.JSON(http.StatusCreated, echo.Map{"malfunction": toMalfunctionPart(m, now)})
}

// Report registers a duplicate sighting: report_count grows and last_seen
// moves forward.
func (h *MalfunctionHandler) Report(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if err := h.Malfunctions.IncrementReport(ctx, id, now, ident.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "malfunction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}

	m, err := h.Malfunctions.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"malfunction": toMalfunctionPart(m, now)})
}

// List returns recent malfunctions with scores, newest sighting first.
func (h *MalfunctionHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.Malfunctions.List(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"malfunctions": mapMalfunctions(records, time.Now().UTC())})
}

// ByProduct returns the malfunctions of one product with scores.
func (h *MalfunctionHandler) ByProduct(c echo.Context) error {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.Malfunctions.ByProduct(ctx, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"malfunctions": mapMalfunctions(records, time.Now().UTC())})
}

// Get returns one malfunction with its score detail.
func (h *MalfunctionHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Malfunctions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "malfunction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"malfunction": toMalfunctionPart(m, time.Now().UTC())})
}

// Classify lets staff adjust severity, difficulty and the repair estimate.
func (h *MalfunctionHandler) Classify(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req classifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	severity, ok := model.ParseSeverity(req.Severity)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "severity must be one of bassa|media|alta|critica"})
	}
	difficulty, ok := model.ParseDifficulty(req.Difficulty)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "difficulty must be one of facile|media|difficile|esperto"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Malfunctions.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "malfunction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Malfunctions.UpdateClassification(ctx, id, severity, difficulty, req.EstimatedMinutes, ident.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	m, err := h.Malfunctions.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"malfunction": toMalfunctionPart(m, time.Now().UTC())})
}

func mapMalfunctions(records []model.Malfunction, now time.Time) []malfunctionPart {
	out := make([]malfunctionPart, 0, len(records))
	for _, m := range records {
		out = append(out, toMalfunctionPart(m, now))
	}
	return out
}
