package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipehub/internal/auth"
	"recipehub/internal/blog"
	"recipehub/internal/events"
	"recipehub/internal/middleware"
	"recipehub/internal/recipe"
	"recipehub/pkg/utils"
)

// pinger is the readiness check on the recipe store.
type pinger interface {
	Ping(ctx context.Context) error
}

type app struct {
	cfg     *utils.Config
	logger  *zap.Logger
	auth    *auth.Service
	recipes *recipe.Repo
	posts   *blog.Repo
	store   pinger
	hub     *events.Hub
}

func newRouter(a *app) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.Use(
		middleware.Recovery(a.logger),
		requestid.New(),
		middleware.Logger(a.logger.Named("http")),
		cors.New(cors.Config{
			AllowOrigins:     a.cfg.CORS.AllowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.BodySizeLimit(a.cfg.Server.MaxBodyBytes),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": a.cfg.Storage.Driver})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := a.hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := a.store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"store_error": err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"store":       "ok",
			"recipes":     a.recipes.Len(),
			"posts":       a.posts.Len(),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/ws", events.WSHandler(a.hub, a.cfg.CORS.AllowOrigins))

	limiter := middleware.NewRateLimiter(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst, a.logger.Named("ratelimit"))

	recipeHandler := recipe.NewHandler(a.recipes, a.hub, a.logger.Named("recipe"))
	blogHandler := blog.NewHandler(a.posts, a.hub, a.logger.Named("blog"))

	api := router.Group("/api")
	recipeHandler.RegisterPublicRoutes(api, limiter.Limit())
	blogHandler.RegisterPublicRoutes(api)

	adminGroup := api.Group("/admin")
	auth.NewHandler(a.auth, a.cfg.Server.CookieSecure, a.logger.Named("auth")).
		RegisterRoutes(adminGroup, limiter.Limit())

	protected := adminGroup.Group("")
	protected.Use(auth.AuthMiddleware(a.auth))
	recipeHandler.RegisterAdminRoutes(protected)
	blogHandler.RegisterAdminRoutes(protected)

	return router
}
