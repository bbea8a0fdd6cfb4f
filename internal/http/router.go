// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Three surfaces share one engine:
//   - POST /webhook for LINE platform events
//   - the LIFF form endpoints under the API base path
//   - the authenticated admin dashboard API under {base}/admin
package httpapi

import (
	"context"
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

	_ "github.com/khayai/repairbot/docs"
	"github.com/khayai/repairbot/internal/config"
	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/http/handlers"
	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/repo"
)

// RatingBackend serves both the LIFF rating form and the admin reports.
type RatingBackend interface {
	handlers.RatingSubmitter
	handlers.RatingReader
}

// RequestBackend serves the LIFF history pages and the admin dashboard.
type RequestBackend interface {
	handlers.RequestReader
	handlers.RequestManager
}

// PoleBackend serves the LIFF pole picker and the admin pole catalog.
type PoleBackend interface {
	handlers.PoleLister
	handlers.PoleCatalog
}

// Deps are the services mounted by RegisterRoutes.
type Deps struct {
	Tokens     middleware.TokenVerifier
	Parser     handlers.EventParser
	Bot        handlers.EventHandler
	Forms      handlers.FormSubmitter
	Ratings    RatingBackend
	Requests   RequestBackend
	Poles      PoleBackend
	Inventory  handlers.Inventory
	Accounts   handlers.AccountService
	Counters   handlers.CounterMaintenance
	Settings   handlers.SettingsStore
	Signatures handlers.SignatureStore
}

// corsHeaders are the request headers browsers may send cross-origin.
var corsHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderIdempotencyKey, middleware.HeaderLineUserID, "X-Line-Signature",
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger (the webhook is still acked)
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator on repair-form-submit (before the rate limiter
//     so replays bypass it)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Line-Signature", middleware.HeaderLineUserID},
	}))

	// 4) Panic recovery to JSON 500; LINE must still see 200 on /webhook
	r.Use(middleware.Recovery(middleware.RecoveryOptions{AckPaths: []string{"/webhook"}}))

	// 5) Global body size limit (photos travel base64-encoded)
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// LINE redelivers throttled webhooks, so the limiter and CORS stay off it.
	webhook := handlers.NewWebhookHandler(d.Parser, d.Bot)
	r.POST("/webhook", webhook.Webhook)

	apiBase := cfg.APIBasePath

	// 7) Idempotency validation (before rate limiting)
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			Scope:  domain.ScopeRepairSubmit,
			MaxLen: 200,
		},
		func(ctx context.Context, scope, subject, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, scope, subject, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	)
	repairSubmit := path.Join("/", apiBase, "repair-form-submit")
	r.Use(func(c *gin.Context) {
		if c.FullPath() == repairSubmit {
			idem(c)
			return
		}
		c.Next()
	})

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	liff := handlers.NewLIFFHandler(d.Forms, d.Ratings, d.Requests, d.Poles, handlers.LIFFConfig{
		LIFFID:  cfg.Line.LIFFID,
		BaseURL: cfg.Line.BaseURL,
	})

	api := groupWithPrefix(r, apiBase)
	{
		// LIFF forms
		api.POST("/form-submit", liff.SubmitPersonalInfo)
		api.POST("/repair-form-submit", liff.SubmitRepair)
		api.POST("/rating-submit", liff.SubmitRating)
		api.GET("/check-user", liff.CheckUser)
		api.GET("/liff-config", liff.Config)
		api.GET("/poles-list", liff.PolesList)
		api.GET("/user-repair-history", liff.UserHistory)
		api.GET("/repair-request-detail/:id", liff.RequestDetail)
	}

	registerAdmin(api.Group("/admin"), d, cfg)
}

// registerAdmin mounts the dashboard API. Login is public; everything else
// needs a bearer token and some routes a specific role.
func registerAdmin(admin *gin.RouterGroup, d Deps, cfg config.Config) {
	admin.Use(
		gzip.Gzip(gzip.DefaultCompression),
		middleware.SecurityHeaders(middleware.SecurityOptions{
			EnableHSTS: cfg.Security.EnableHSTS,
			HSTSMaxAge: cfg.Security.HSTSMaxAge,
			NoStore:    true,
		}),
	)

	accounts := handlers.NewAdminHandler(d.Accounts)
	admin.POST("/login", accounts.Login)

	authed := admin.Group("", middleware.Authenticate(d.Tokens))

	requests := handlers.NewRequestHandler(d.Requests, cfg.Location())
	authed.GET("/requests", requests.List)
	authed.GET("/requests/summary", requests.Summary)
	authed.GET("/requests/export.csv", requests.ExportCSV)
	authed.GET("/requests/:id", requests.Get)
	authed.PUT("/requests/:id/status", requests.UpdateStatus)

	ref := handlers.NewReferenceHandler(d.Poles, d.Inventory)
	authed.GET("/poles", ref.ListPoles)
	authed.POST("/poles", ref.CreatePole)
	authed.GET("/poles/:id", ref.GetPole)
	authed.PUT("/poles/:id", ref.UpdatePole)
	authed.GET("/inventory", ref.ListInventory)
	authed.POST("/inventory", ref.CreateInventory)
	authed.PUT("/inventory/:name", ref.UpdateInventory)
	authed.POST("/inventory/:name/adjust", ref.AdjustInventory)

	ratings := handlers.NewRatingHandler(d.Ratings)
	authed.GET("/ratings", ratings.List)
	authed.GET("/ratings/averages", ratings.Averages)
	authed.GET("/ratings/monthly", ratings.Monthly)
	authed.GET("/ratings/request/:id", ratings.ByRequest)

	settings := handlers.NewSettingsHandler(d.Settings, d.Signatures)
	signers := authed.Group("/signatures", middleware.RequireRole(domain.RoleExecutive, domain.RoleAdmin))
	signers.POST("", settings.UploadSignature)
	signers.GET("/:name", settings.GetSignature)

	adminOnly := authed.Group("", middleware.RequireRole(domain.RoleAdmin))
	adminOnly.GET("/users", accounts.ListUsers)
	adminOnly.POST("/users", accounts.CreateUser)
	adminOnly.PUT("/users/:username", accounts.UpdateUser)
	adminOnly.DELETE("/users/:username", accounts.DeleteUser)

	counters := handlers.NewCounterHandler(d.Counters)
	adminOnly.GET("/counters", counters.Stats)
	adminOnly.POST("/counters/backup", counters.Backup)
	adminOnly.POST("/counters/cleanup", counters.Cleanup)
	adminOnly.POST("/counters/:period/reset", counters.Reset)

	adminOnly.GET("/settings/telegram", settings.GetTelegram)
	adminOnly.PUT("/settings/telegram", settings.SaveTelegram)
	adminOnly.POST("/settings/telegram/test", settings.TestTelegram)
	adminOnly.GET("/settings/flex", settings.GetFlex)
	adminOnly.PUT("/settings/flex", settings.SaveFlex)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error. A non-positive cap disables it.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
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
