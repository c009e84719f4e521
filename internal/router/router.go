package router

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ecoloop/internal/handlers"
	"ecoloop/internal/middleware"
	"ecoloop/internal/services"
)

// Options carries everything the HTTP layer is built from.
type Options struct {
	Services       *services.Services
	Auth           *services.Auth
	Store          handlers.Pinger
	StoreDriver    string
	CORSOrigins    []string
	RateLimit      *middleware.RateLimiter
	RequestTimeout time.Duration
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func RegisterRoutes(r *gin.Engine, opts Options) {
	svc := opts.Services

	// Handlers
	authHandler := handlers.NewAuthHandler(opts.Auth)
	healthHandler := handlers.NewHealthHandler(opts.Store, opts.StoreDriver)
	materialHandler := handlers.NewMaterialHandler(svc.Catalog)
	postHandler := handlers.NewPostHandler(svc.Posts, svc.Interactions)
	pickupHandler := handlers.NewPickupHandler(svc.Pickups)
	pointsHandler := handlers.NewPointsHandler(svc.Ledger)
	conversationHandler := handlers.NewConversationHandler(svc.Messaging)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)

	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	api := r.Group("/api")
	api.Use(
		middleware.Timeout(opts.RequestTimeout),
		middleware.LoadIdentity(opts.Auth),
		middleware.RateLimit(opts.RateLimit),
	)

	// Public routes
	api.GET("/health", healthHandler.Check)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/materials", materialHandler.List)
	api.GET("/materials/:id", materialHandler.Detail)
	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Detail)
	api.GET("/posts/:id/comments", postHandler.Comments)
	api.GET("/posts/:id/support", postHandler.Supports)

	// Protected routes
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.POST("/posts/:id/status", postHandler.SetStatus)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/comments", postHandler.CreateComment)
		authorized.POST("/posts/:id/support", postHandler.Support)
		authorized.POST("/posts/:id/pickups", pickupHandler.Propose)

		authorized.GET("/pickups", pickupHandler.List)
		authorized.GET("/pickups/:id", pickupHandler.Detail)
		authorized.POST("/pickups/:id/confirm", pickupHandler.Confirm)
		authorized.POST("/pickups/:id/complete", pickupHandler.Complete)
		authorized.POST("/pickups/:id/cancel", pickupHandler.Cancel)

		authorized.GET("/points", pointsHandler.Standing)
		authorized.GET("/points/history", pointsHandler.History)

		authorized.POST("/conversations", conversationHandler.Start)
		authorized.GET("/conversations", conversationHandler.List)
		authorized.GET("/conversations/:id/messages", conversationHandler.Messages)
		authorized.POST("/conversations/:id/messages", conversationHandler.Send)
		authorized.POST("/conversations/:id/read", conversationHandler.Read)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)

		authorized.GET("/analytics/me", analyticsHandler.Me)
	}

	// Admin routes
	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.POST("/materials", materialHandler.Create)
		admin.POST("/materials/:id/prices", materialHandler.RecordPrice)
		admin.GET("/analytics/materials", analyticsHandler.Materials)
	}
}

// New builds a configured engine with logging and recovery installed.
func New(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	RegisterRoutes(r, opts)
	return r
}
