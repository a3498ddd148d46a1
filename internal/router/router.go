package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/degree-audit/internal/config"
	"github.com/stemsi/degree-audit/internal/handler"
	"github.com/stemsi/degree-audit/internal/middleware"
	"github.com/stemsi/degree-audit/internal/response"
)

// registryMaxAge is how long clients may cache registry responses. The
// registry only changes on redeploy.
const registryMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Audit   *handler.AuditHandler
	Major   *handler.MajorHandler
	Catalog *handler.CatalogHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// A nil auditLimiter leaves audit routes unthrottled.
func SetupRouter(
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
	auditLimiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", middleware.NoStore(), handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 1. Registry Group (cacheable) ─────────────────────────────────
	majors := api.Group("/majors")
	majors.Use(middleware.CacheControl(registryMaxAge))
	{
		majors.GET("", handlers.Major.GetAll)
		majors.GET("/resolve", handlers.Major.Resolve)
		majors.GET("/:id/requirements", handlers.Major.Requirements)
	}

	// ─── 2. Audit Group (rate limited) ─────────────────────────────────
	audits := api.Group("/audits")
	audits.Use(middleware.NoStore())
	if auditLimiter != nil {
		audits.Use(auditLimiter.Middleware())
	}
	{
		audits.POST("", handlers.Audit.RunAudit)
		audits.POST("/transcript", handlers.Audit.RunTranscriptAudit)
	}

	// ─── 3. Catalog Group ──────────────────────────────────────────────
	catalog := api.Group("/catalog")
	catalog.Use(middleware.NoStore())
	{
		catalog.GET("/tables", handlers.Catalog.ListTables)
		catalog.GET("/tables/:table_id/courses", handlers.Catalog.ListCourses)
		catalog.GET("/prerequisites", handlers.Catalog.Prerequisites)
		catalog.POST("/refresh-cache", handlers.Catalog.RefreshCache)
	}

	// ─── 4. System Group ───────────────────────────────────────────────
	system := api.Group("/system")
	system.Use(middleware.NoStore())
	{
		system.GET("/stats", handlers.System.Stats)
	}

	return router
}
