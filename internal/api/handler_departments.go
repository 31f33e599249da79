package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ppm-tracker-backend/internal/model"
)

type departmentRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Information string `json:"information" binding:"max=500"`
}

func (r departmentRequest) toModel(id int64) (*model.Department, bool) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, false
	}
	return &model.Department{ID: id, Name: name, Information: strings.TrimSpace(r.Information)}, true
}

// ListDepartments handles GET /api/departments.
func (h *Handler) ListDepartments(c *gin.Context) {
	departments, err := h.store.ListDepartments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

// DepartmentDropdown handles GET /api/departments/dropdown.
func (h *Handler) DepartmentDropdown(c *gin.Context) {
	options, err := h.store.DepartmentOptions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// GetDepartment handles GET /api/departments/:id.
func (h *Handler) GetDepartment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	d, err := h.store.GetDepartment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// CreateDepartment handles POST /api/departments.
func (h *Handler) CreateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	d, ok := req.toModel(0)
	if !ok {
		badRequest(c, "department name is required")
		return
	}
	if err := h.store.CreateDepartment(c.Request.Context(), d); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDepartment handles PUT /api/departments/:id.
func (h *Handler) UpdateDepartment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	d, ok := req.toModel(id)
	if !ok {
		badRequest(c, "department name is required")
		return
	}
	if err := h.store.UpdateDepartment(c.Request.Context(), d); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteDepartment handles DELETE /api/departments/:id.
func (h *Handler) DeleteDepartment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.store.DeleteDepartment(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
