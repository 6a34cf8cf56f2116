package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/assignment"
	"github.com/gtarallo/assistenza-tecnica/internal/model"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
)

// ProductHandler serves the product catalog and the assignment endpoints.
type ProductHandler struct {
	Products  *repository.ProductRepo
	Directory *assignment.Directory
}

func NewProductHandler(p *repository.ProductRepo, d *assignment.Directory) *ProductHandler {
	return &ProductHandler{Products: p, Directory: d}
}

type createProductReq struct {
	Name     string `json:"name"`
	Model    string `json:"model"`
	Category string `json:"category"`
}
type updateProductReq struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}
type assignReq struct {
	StaffID *uint64 `json:"staff_id"` // null clears the assignment
}
type bulkAssignReq struct {
	ProductIDs []uint64 `json:"product_ids"`
	StaffID    *uint64  `json:"staff_id"`
}

type productPart struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Model         string  `json:"model"`
	Category      string  `json:"category"`
	CategoryLabel string  `json:"category_label"`
	StaffID       *uint64 `json:"staff_id"`
}

func toProductPart(p model.Product) productPart {
	return productPart{
		ID:            p.ID,
		Name:          p.Name,
		Model:         p.Model,
		Category:      p.Category,
		CategoryLabel: p.CategoryLabel(),
		StaffID:       p.AssignedStaffID,
	}
}

// Create adds a catalog entry.  The category key must belong to the known
// set: display code tolerates unknown keys with a derived label, but new
// products should not introduce them.
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Model == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/model required"})
	}
	if !model.KnownCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":      "unknown category",
			"categories": model.CategoryKeys(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Products.Create(ctx, req.Name, req.Model, req.Category)
	if err != nil {
		if errors.Is(err, repository.ErrModelExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "model already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List returns the active catalog.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": mapProducts(products)})
}

// Get returns one product.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"product": toProductPart(p)})
}

// Update changes name and category.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || !model.KnownCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and known category required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Products.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Products.Update(ctx, id, req.Name, req.Category); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Assign points a product at a staff member (or clears with staff_id:null)
// and reports the previous assignee.
func (h *ProductHandler) Assign(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	previous, err := h.Directory.Assign(ctx, id, req.StaffID)
	if err != nil {
		return assignmentError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"product_id":        id,
		"staff_id":          req.StaffID,
		"previous_staff_id": previous,
	})
}

// BulkAssign applies one target to a set of products and reports how many
// rows changed.
func (h *ProductHandler) BulkAssign(c echo.Context) error {
	var req bulkAssignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.ProductIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_ids required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	changed, err := h.Directory.BulkAssign(ctx, req.ProductIDs, req.StaffID)
	if err != nil {
		return assignmentError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": changed})
}

// Unassigned lists the products waiting for a responsible staff member.
func (h *ProductHandler) Unassigned(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Directory.Unassigned(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": mapProducts(products)})
}

// ForStaff lists the products assigned to one staff member.
func (h *ProductHandler) ForStaff(c echo.Context) error {
	staffID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || staffID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Directory.ForStaff(ctx, staffID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": mapProducts(products)})
}

func mapProducts(products []model.Product) []productPart {
	out := make([]productPart, 0, len(products))
	for _, p := range products {
		out = append(out, toProductPart(p))
	}
	return out
}

// assignmentError maps directory failures onto HTTP statuses; validation
// problems are the caller's to fix, everything else is a 500.
func assignmentError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, assignment.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, assignment.ErrInvalidAssignee):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assignment failed"})
	}
}
