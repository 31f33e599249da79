package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ppm-tracker-backend/internal/mw"
)

// RouterConfig tunes the middleware in front of the API.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
	// Limiter is used instead of a new limiter when set, so the caller can
	// sweep idle clients.
	Limiter *mw.IPRateLimiter
	Logger  zerolog.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.RequestLogger(cfg.Logger))

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.Use(mw.RateLimit(limiter), mw.FlushOnWrite(cacheStore))
	{
		api.GET("/dashboard", caching, h.GetDashboard)
		api.GET("/dashboard/summary", caching, h.GetDashboardSummary)

		api.GET("/departments", h.ListDepartments)
		api.POST("/departments", h.CreateDepartment)
		api.GET("/departments/dropdown", caching, h.DepartmentDropdown)
		api.GET("/departments/:id", h.GetDepartment)
		api.PUT("/departments/:id", h.UpdateDepartment)
		api.DELETE("/departments/:id", h.DeleteDepartment)

		api.GET("/trainers", h.ListTrainers)
		api.POST("/trainers", h.CreateTrainer)
		api.GET("/trainers/:id", h.GetTrainer)
		api.PUT("/trainers/:id", h.UpdateTrainer)
		api.DELETE("/trainers/:id", h.DeleteTrainer)

		api.GET("/equipment", h.ListEquipment)
		api.POST("/equipment", h.CreateEquipment)
		api.GET("/equipment/:serial", h.GetEquipment)
		api.PUT("/equipment/:serial", h.UpdateEquipment)
		api.DELETE("/equipment/:serial", h.DeleteEquipment)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.PutSettings)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		api.GET("/backups", h.ListBackups)
		api.POST("/backups", h.CreateBackup)
		api.DELETE("/backups/:filename", h.DeleteBackup)
		api.POST("/backups/:filename/restore", h.RestoreBackup)
	}

	return r
}
