// Package rest exposes the FudBi services as a JSON API over gin.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/config"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LiveFeed upgrades a request into a websocket subscribed to one city.
type LiveFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request, city string) error
}

// Env carries the handler dependencies.
type Env struct {
	Auth          *services.AuthService
	Posts         *services.PostService
	Pickups       *services.PickupService
	Stats         *services.StatsService
	Media         *services.MediaService
	Notifications *services.NotificationService
	Sessions      services.SessionStore
	Feed          LiveFeed
	Store         Pinger
	Logger        logging.Logger

	SessionTTL   time.Duration
	CookieSecure bool
}

// SetupRoutes configures middleware and every route on router. The rate
// limiter's cleanup loop stops with ctx.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(RequestLogger(env.Logger))
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := cfg.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: corsOrigin != "*",
		MaxAge:           12 * time.Hour,
	}))
	router.Use(SessionMiddleware(env.Sessions, env.Logger))

	limiter := NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx)
	limited := RateLimitMiddleware(limiter)

	api := router.Group("/api", RequestTimeout(cfg.RequestTimeout))
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", limited, env.SignUp)
		authGroup.POST("/confirm", limited, env.Confirm)
		authGroup.POST("/signin", limited, env.SignIn)
		authGroup.POST("/signout", env.SignOut)
		authGroup.GET("/session", env.Session)

		api.GET("/posts", env.ListPosts)
		api.POST("/posts", RequireAuth(), limited, env.CreatePost)
		api.GET("/posts/mine", RequireAuth(), env.MyPosts)
		api.GET("/posts/:id", env.GetPost)
		api.POST("/posts/:id/cancel", RequireAuth(), env.CancelPost)

		pickupsGroup := api.Group("/pickups", RequireAuth())
		pickupsGroup.POST("/accept", env.AcceptPickup)
		pickupsGroup.POST("/update", env.UpdatePickup)
		pickupsGroup.GET("/mine", env.MyPickups)

		api.GET("/stats/user", RequireAuth(), env.UserStats)

		admin := api.Group("/admin", RequireRole(models.RoleAdmin))
		admin.GET("/stats", env.AdminStats)
		admin.GET("/posts", env.AdminPosts)
		admin.POST("/flag-post", env.FlagPost)

		api.POST("/notifications/register", RequireAuth(), env.RegisterPushToken)

		api.POST("/uploads/presign", RequireAuth(), limited, env.PresignUpload)
		api.GET("/images", env.Image)
	}

	router.GET("/ws", env.ServeWS)
	router.GET("/healthz", env.Healthz)
}
