package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ppm-tracker-backend/internal/backup"
	"ppm-tracker-backend/internal/dateparse"
	"ppm-tracker-backend/internal/quarter"
	"ppm-tracker-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	selector *quarter.Selector
	webpush  *webpush.Options
	backups  *backup.Manager
	log      zerolog.Logger
}

// NewHandler creates a new API handler. webpushOptions and backups may be nil,
// in which case the matching endpoints answer 503.
func NewHandler(s store.Store, selector *quarter.Selector, webpushOptions *webpush.Options, backups *backup.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		store:    s,
		selector: selector,
		webpush:  webpushOptions,
		backups:  backups,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// fail maps domain errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, backup.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, backup.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, backup.ErrInvalidName), errors.Is(err, dateparse.ErrDateFormat):
		status = http.StatusBadRequest
	default:
		_ = c.Error(err)
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func invalidRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
