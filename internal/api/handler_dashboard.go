package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ppm-tracker-backend/internal/dateparse"
	"ppm-tracker-backend/internal/model"
	"ppm-tracker-backend/internal/quarter"
)

// DashboardRow is one equipment record with its active quarter.
type DashboardRow struct {
	Serial     string `json:"serial"`
	Name       string `json:"name"`
	Department string `json:"department"`
	quarter.DisplayPayload
}

// BuildDashboard derives the dashboard rows for items as of ref. A zero ref
// means now.
func BuildDashboard(sel *quarter.Selector, items []model.Equipment, ref time.Time) []DashboardRow {
	rows := make([]DashboardRow, 0, len(items))
	for _, e := range items {
		rows = append(rows, DashboardRow{
			Serial:         e.Serial,
			Name:           e.Name,
			Department:     e.Department,
			DisplayPayload: sel.BuildDisplayPayload(e.Quarters, ref),
		})
	}
	return rows
}

// referenceDate reads the optional ?date= parameter. It returns false after
// writing a 400 when the date cannot be parsed.
func referenceDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Time{}, true
	}
	ref, err := dateparse.ParseFlexible(raw)
	if err != nil {
		badRequest(c, err.Error())
		return time.Time{}, false
	}
	return ref, true
}

// GetDashboard handles GET /api/dashboard.
func (h *Handler) GetDashboard(c *gin.Context) {
	ref, ok := referenceDate(c)
	if !ok {
		return
	}
	items, err := h.store.ListEquipment(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, BuildDashboard(h.selector, items, ref))
}

// GetDashboardSummary handles GET /api/dashboard/summary.
func (h *Handler) GetDashboardSummary(c *gin.Context) {
	ref, ok := referenceDate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.selector.Summary(ref))
}
