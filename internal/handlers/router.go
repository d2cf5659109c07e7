package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/auth"
	"premium-homes/internal/cleanup"
	"premium-homes/internal/database"
	"premium-homes/internal/ratelimit"
	"premium-homes/internal/scheduler"
	"premium-homes/internal/search"
)

// Dependencies wires the router. Indexer, Scheduler and LoginLimiter are
// optional. With an Indexer and no SearchBreaker a default breaker is used.
type Dependencies struct {
	Store          database.Store
	Auth           *auth.Service
	Indexer        Indexer
	SearchBreaker  *search.CircuitBreaker
	Scheduler      *scheduler.Scheduler
	Cleanup        *cleanup.Service
	LoginLimiter   *ratelimit.RateLimiter
	Logger         *zap.Logger
	UploadDir      string
	MaxUploadBytes int64
	MaxUploadFiles int
	AllowedOrigins []string
	LogRequests    bool
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Dependencies) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	indexer := d.Indexer
	breaker := d.SearchBreaker
	if breaker == nil && indexer != nil {
		breaker = search.NewCircuitBreaker(3, time.Minute, logger)
	}

	r := gin.New()
	r.Use(Recovery(logger))
	if d.LogRequests {
		r.Use(RequestLogger(logger))
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.AllowedOrigins) == 0 || (len(d.AllowedOrigins) == 1 && d.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = d.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	properties := NewPropertyHandler(d.Store, indexer, logger)
	agents := NewAgentHandler(d.Store, logger)
	authHandler := NewAuthHandler(d.Auth, logger)
	uploads := NewUploadHandler(d.UploadDir, d.MaxUploadBytes, d.MaxUploadFiles, logger)
	searchHandler := NewSearchHandler(d.Store, indexer, breaker, logger)
	admin := NewAdminHandler(d.Store, indexer, breaker, d.Scheduler, d.Cleanup, logger)

	requireAuth := AuthRequired(d.Auth.Tokens())

	api := r.Group("/api")
	api.GET("", apiIndex)
	api.GET("/health", healthCheck)

	authGroup := api.Group("/auth")
	{
		if d.LoginLimiter != nil {
			authGroup.POST("/login", RateLimit(d.LoginLimiter), authHandler.Login)
		} else {
			authGroup.POST("/login", authHandler.Login)
		}
		authGroup.POST("/register", authHandler.Register)
		authGroup.GET("/verify", authHandler.Verify)
	}

	props := api.Group("/properties")
	{
		props.GET("", properties.List)
		props.GET("/:id", properties.Get)
		props.POST("", requireAuth, properties.Create)
		props.PUT("/:id", requireAuth, properties.Update)
		props.DELETE("/:id", requireAuth, properties.Delete)
	}

	agentGroup := api.Group("/agents")
	{
		agentGroup.GET("", agents.List)
		agentGroup.GET("/:id", agents.Get)
		agentGroup.POST("", requireAuth, agents.Create)
		agentGroup.PUT("/:id", requireAuth, agents.Update)
		agentGroup.DELETE("/:id", requireAuth, agents.Delete)
	}

	upload := api.Group("/upload", requireAuth)
	{
		upload.POST("/image", uploads.Image)
		upload.POST("/images", uploads.Images)
	}

	api.GET("/search", searchHandler.Search)

	adminGroup := api.Group("/admin", requireAuth, RequireAdmin())
	{
		adminGroup.GET("/stats", admin.GetStats)
		if d.Cleanup != nil {
			adminGroup.POST("/cleanup", admin.RunCleanup)
		}
		adminGroup.POST("/reindex", admin.Reindex)
	}

	return r
}

func apiIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "Premium Homes API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"health": "/api/health",
			"auth": gin.H{
				"login":    "POST /api/auth/login",
				"register": "POST /api/auth/register",
				"verify":   "GET /api/auth/verify",
			},
			"properties": gin.H{
				"getAll":  "GET /api/properties",
				"getById": "GET /api/properties/:id",
				"create":  "POST /api/properties (requires auth)",
				"update":  "PUT /api/properties/:id (requires auth)",
				"delete":  "DELETE /api/properties/:id (requires auth)",
			},
			"agents": gin.H{
				"getAll":  "GET /api/agents",
				"getById": "GET /api/agents/:id",
				"create":  "POST /api/agents (requires auth)",
				"update":  "PUT /api/agents/:id (requires auth)",
				"delete":  "DELETE /api/agents/:id (requires auth)",
			},
			"upload": gin.H{
				"single":   "POST /api/upload/image (requires auth)",
				"multiple": "POST /api/upload/images (requires auth)",
			},
			"search": "GET /api/search",
			"admin": gin.H{
				"stats":   "GET /api/admin/stats (admin)",
				"cleanup": "POST /api/admin/cleanup (admin)",
				"reindex": "POST /api/admin/reindex (admin)",
			},
		},
	})
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "Premium Homes API is running",
		"time":    time.Now().Format(time.RFC3339),
	})
}
