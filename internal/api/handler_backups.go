package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ppm-tracker-backend/internal/backup"
)

type createBackupRequest struct {
	Type backup.Kind `json:"type"`
}

func (h *Handler) backupsAvailable(c *gin.Context) bool {
	if h.backups == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "backups are not configured"})
		return false
	}
	return true
}

// ListBackups handles GET /api/backups, optionally filtered by ?type=.
func (h *Handler) ListBackups(c *gin.Context) {
	if !h.backupsAvailable(c) {
		return
	}
	kind := backup.Kind(c.Query("type"))
	if kind != "" && kind != backup.KindFull && kind != backup.KindSettings {
		badRequest(c, "type must be full or settings")
		return
	}
	backups, err := h.backups.List(kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	if backups == nil {
		backups = []backup.Info{}
	}
	c.JSON(http.StatusOK, backups)
}

// CreateBackup handles POST /api/backups. An empty body creates a full backup.
func (h *Handler) CreateBackup(c *gin.Context) {
	if !h.backupsAvailable(c) {
		return
	}
	var req createBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		invalidRequest(c, err)
		return
	}

	var (
		info backup.Info
		err  error
	)
	switch req.Type {
	case "", backup.KindFull:
		info, err = h.backups.CreateFull(c.Request.Context())
	case backup.KindSettings:
		info, err = h.backups.CreateSettings(c.Request.Context())
	default:
		badRequest(c, "type must be full or settings")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// DeleteBackup handles DELETE /api/backups/:filename.
func (h *Handler) DeleteBackup(c *gin.Context) {
	if !h.backupsAvailable(c) {
		return
	}
	if err := h.backups.Delete(c.Param("filename")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RestoreBackup handles POST /api/backups/:filename/restore.
func (h *Handler) RestoreBackup(c *gin.Context) {
	if !h.backupsAvailable(c) {
		return
	}
	filename := c.Param("filename")
	if err := h.backups.Restore(c.Request.Context(), filename); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "backup restored", "filename": filename})
}
