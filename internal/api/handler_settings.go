package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PutSettings handles PUT /api/settings. Keys missing from the body keep
// their current values.
func (h *Handler) PutSettings(c *gin.Context) {
	settings, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := c.ShouldBindJSON(&settings); err != nil {
		invalidRequest(c, err)
		return
	}
	if err := settings.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store.SaveSettings(c.Request.Context(), settings); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
