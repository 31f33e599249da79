package api

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ppm-tracker-backend/internal/model"
)

var telephonePattern = regexp.MustCompile(`^[\d\s\-()+]+$`)

type trainerRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	DepartmentID *int64 `json:"department_id"`
	Telephone    string `json:"telephone" binding:"max=20"`
	Information  string `json:"information" binding:"max=500"`
}

func (r trainerRequest) toModel(id int64) (*model.Trainer, string) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, "trainer name is required"
	}
	phone := strings.TrimSpace(r.Telephone)
	if phone != "" && !telephonePattern.MatchString(phone) {
		return nil, "telephone may only contain digits, spaces, dashes, parentheses and plus signs"
	}
	return &model.Trainer{
		ID:           id,
		Name:         name,
		DepartmentID: r.DepartmentID,
		Telephone:    phone,
		Information:  strings.TrimSpace(r.Information),
	}, ""
}

// ListTrainers handles GET /api/trainers, optionally filtered by ?department_id=.
func (h *Handler) ListTrainers(c *gin.Context) {
	var departmentID *int64
	if raw := c.Query("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid department_id")
			return
		}
		departmentID = &id
	}
	trainers, err := h.store.ListTrainers(c.Request.Context(), departmentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trainers)
}

// GetTrainer handles GET /api/trainers/:id.
func (h *Handler) GetTrainer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	t, err := h.store.GetTrainer(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTrainer handles POST /api/trainers.
func (h *Handler) CreateTrainer(c *gin.Context) {
	var req trainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	t, problem := req.toModel(0)
	if problem != "" {
		badRequest(c, problem)
		return
	}
	if err := h.store.CreateTrainer(c.Request.Context(), t); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UpdateTrainer handles PUT /api/trainers/:id.
func (h *Handler) UpdateTrainer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req trainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	t, problem := req.toModel(id)
	if problem != "" {
		badRequest(c, problem)
		return
	}
	if err := h.store.UpdateTrainer(c.Request.Context(), t); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTrainer handles DELETE /api/trainers/:id.
func (h *Handler) DeleteTrainer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.store.DeleteTrainer(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
