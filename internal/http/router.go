// Package httpapi wires the HTTP transport (Gin) to the delivery services,
// middleware and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, redacted logging, panic recovery, metrics,
// compression, CORS, security headers, rate limiting and authentication.
package httpapi

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/studyvault/docs"
	"github.com/tbourn/studyvault/internal/config"
	"github.com/tbourn/studyvault/internal/http/handlers"
	"github.com/tbourn/studyvault/internal/http/middleware"
	"github.com/tbourn/studyvault/internal/repo"
	"github.com/tbourn/studyvault/internal/services"
)

// maxBodyBytes caps JSON request bodies. No endpoint accepts uploads.
const maxBodyBytes = 1 << 20

// Deps are the collaborators the router needs to build the services.
type Deps struct {
	DB       *gorm.DB
	Blobs    services.BlobStore
	Marker   services.Watermarker
	Tickets  services.TicketSigner
	Verifier middleware.TokenVerifier
	// Limiter guards key redemption; nil disables the guard.
	Limiter services.AttemptLimiter
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs without credentials
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP at the edge)
//  8. CORS and security headers
//  9. gzip for JSON responses (PDF delivery excluded)
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"If-None-Match"},
		LogHeaders:  cfg.GinMode == gin.DebugMode,
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		Exempt("/health", "/metrics")
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		joinPath(apiBase, "/download"),
		"/metrics",
	})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(buildServices(deps, cfg))

	api := groupWithPrefix(r, apiBase)
	{
		// Ticket-authenticated; the bearer token is not required.
		api.GET("/download", middleware.NoStore(), h.Download)
	}

	user := api.Group("", middleware.RequireUser(deps.Verifier))
	{
		user.POST("/unlock-content", h.UnlockContent)
		user.POST("/redeem", h.Redeem)

		user.GET("/entitlements", h.ListEntitlements)
		user.POST("/entitlements/:id/download", middleware.NoStore(), h.AuthorizeDownload)

		user.POST("/orders", h.Checkout)
		user.GET("/orders", h.ListOrders)
		user.GET("/orders/:id", h.GetOrder)
	}

	admin := user.Group("/admin", middleware.RequireAdmin(cfg.IsAdmin))
	{
		admin.POST("/keys", middleware.NoStore(), h.MintKeys)
		admin.GET("/keys", middleware.NoStore(), h.ListKeys)
		admin.POST("/orders/:id/complete", h.CompleteOrder)
		admin.POST("/orders/:id/processing", h.MarkOrderProcessing)
	}
}

// buildServices is the dependency injection point: services ← db/blobs.
func buildServices(deps Deps, cfg config.Config) handlers.Services {
	return handlers.Services{
		Fulfillment:  &services.FulfillmentService{DB: deps.DB},
		Redemption:   &services.RedemptionService{DB: deps.DB, Limiter: deps.Limiter},
		Entitlements: services.NewEntitlementService(deps.DB, repo.EntitlementStore{}),
		Downloads: &services.DownloadService{
			DB:            deps.DB,
			Blobs:         deps.Blobs,
			Marker:        deps.Marker,
			Tickets:       deps.Tickets,
			TTL:           cfg.Delivery.SignedURLTTL,
			PublicBaseURL: cfg.Delivery.PublicBaseURL + joinPath(cfg.APIBasePath, ""),
		},
		Orders: services.NewOrderService(deps.DB, repo.OrderStore{}),
		Keys:   services.NewAccessKeyService(deps.DB),
	}
}

// corsMiddleware allows every origin when none is configured, otherwise only
// the allowlist. Credentials are never allowed; auth is a bearer header.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Force ACAO even without an Origin header (health checks, tests).
		force := func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		}
		return []gin.HandlerFunc{force, cors.New(base)}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{cors.New(base)}
}

// limitBody caps the request body for every endpoint.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath appends p to the API base path; "/" and "" are the root.
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	if p == "" {
		return base
	}
	return path.Join(base, p)
}
