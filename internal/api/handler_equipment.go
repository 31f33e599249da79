package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ppm-tracker-backend/internal/dateparse"
	"ppm-tracker-backend/internal/model"
	"ppm-tracker-backend/internal/quarter"
)

type equipmentRequest struct {
	Serial           string         `json:"serial" binding:"required,max=128"`
	Department       string         `json:"department" binding:"max=100"`
	Name             string         `json:"name" binding:"max=256"`
	Model            string         `json:"model" binding:"max=128"`
	Manufacturer     string         `json:"manufacturer" binding:"max=128"`
	LogNumber        string         `json:"log_number" binding:"max=64"`
	InstallationDate string         `json:"installation_date"`
	WarrantyEnd      string         `json:"warranty_end"`
	Quarters         quarter.Record `json:"quarters"`
}

// toModel validates the request and normalizes every date to DD/MM/YYYY.
// When only the first quarter carries a date, the other three are filled in
// at three-month steps.
func (r equipmentRequest) toModel() (*model.Equipment, error) {
	serial := strings.TrimSpace(r.Serial)
	if serial == "" {
		return nil, fmt.Errorf("serial is required")
	}

	installed, err := normalizeOptional("installation_date", r.InstallationDate)
	if err != nil {
		return nil, err
	}
	warranty, err := normalizeOptional("warranty_end", r.WarrantyEnd)
	if err != nil {
		return nil, err
	}

	rec := make(quarter.Record, len(quarter.Keys))
	dated := 0
	for _, k := range quarter.Keys {
		slot := r.Quarters.Slot(k)
		if slot.Malformed() {
			return nil, fmt.Errorf("%s must be an object with string fields", k)
		}
		date, err := normalizeOptional(string(k), slot.QuarterDate)
		if err != nil {
			return nil, err
		}
		if date != "" {
			dated++
		}
		rec[k] = quarter.Slot{QuarterDate: date, Engineer: strings.TrimSpace(slot.Engineer)}
	}

	if q1 := rec[quarter.KeyQ1].QuarterDate; q1 != "" && dated == 1 {
		dates, err := dateparse.QuarterDatesFromQ1(q1)
		if err != nil {
			return nil, err
		}
		for i, k := range quarter.Keys {
			slot := rec[k]
			slot.QuarterDate = dates[i]
			rec[k] = slot
		}
	}

	return &model.Equipment{
		Serial:           serial,
		Department:       strings.TrimSpace(r.Department),
		Name:             strings.TrimSpace(r.Name),
		Model:            strings.TrimSpace(r.Model),
		Manufacturer:     strings.TrimSpace(r.Manufacturer),
		LogNumber:        strings.TrimSpace(r.LogNumber),
		InstallationDate: installed,
		WarrantyEnd:      warranty,
		Quarters:         rec,
	}, nil
}

func normalizeOptional(field, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	normalized, err := dateparse.Normalize(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return normalized, nil
}

// ListEquipment handles GET /api/equipment.
func (h *Handler) ListEquipment(c *gin.Context) {
	items, err := h.store.ListEquipment(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetEquipment handles GET /api/equipment/:serial.
func (h *Handler) GetEquipment(c *gin.Context) {
	e, err := h.store.GetEquipmentBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// CreateEquipment handles POST /api/equipment.
func (h *Handler) CreateEquipment(c *gin.Context) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	e, err := req.toModel()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store.CreateEquipment(c.Request.Context(), e); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// UpdateEquipment handles PUT /api/equipment/:serial.
func (h *Handler) UpdateEquipment(c *gin.Context) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	e, err := req.toModel()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store.UpdateEquipment(c.Request.Context(), c.Param("serial"), e); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteEquipment handles DELETE /api/equipment/:serial.
func (h *Handler) DeleteEquipment(c *gin.Context) {
	if err := h.store.DeleteEquipment(c.Request.Context(), c.Param("serial")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
