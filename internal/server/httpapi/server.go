// Package httpapi is the HTTP transport for the videohub backend. It parses
// requests, runs the middleware chain, calls into the services, and places
// issued tokens into httpOnly+secure cookies.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"videohub/internal/logging"
	"videohub/internal/server/auth"
	"videohub/internal/server/cache"
	"videohub/internal/server/config"
	"videohub/internal/server/media"
	"videohub/internal/server/services"
)

type Server struct {
	log      logging.Logger
	cfg      *config.Config
	auth     *services.AuthService
	profiles *services.ProfileService
	tokens   *auth.TokenService
	media    media.Store
	cache    *cache.Client
	limiter  *limiterStore
	router   *gin.Engine
}

// NewServer wires the routes. cacheClient may be nil; the profile endpoint
// then always hits the database.
func NewServer(log logging.Logger, cfg *config.Config, authSvc *services.AuthService, profileSvc *services.ProfileService, tokens *auth.TokenService, mediaStore media.Store, cacheClient *cache.Client) *Server {
	s := &Server{
		log:      log.With("module", "httpapi"),
		cfg:      cfg,
		auth:     authSvc,
		profiles: profileSvc,
		tokens:   tokens,
		media:    mediaStore,
		cache:    cacheClient,
		limiter:  newLimiterStore(10, 30, 10*time.Minute),
		router:   gin.New(),
	}

	gin.SetMode(gin.ReleaseMode)
	r := s.router
	r.Use(gin.Recovery())
	r.Use(s.loggingMiddleware())
	r.Use(s.corsMiddleware())
	r.Use(s.rateLimitMiddleware())

	v1 := r.Group("/api/v1")
	users := v1.Group("/users")
	{
		users.POST("/register", s.register)
		users.POST("/login", s.login)
		users.POST("/refresh-token", s.refreshToken)
		users.GET("/c/:username", s.optionalAuthMiddleware(), s.channelProfile)

		authed := users.Group("")
		authed.Use(s.authMiddleware())
		{
			authed.POST("/logout", s.logout)
			authed.POST("/change-password", s.changePassword)
			authed.GET("/current-user", s.currentUser)
			authed.PATCH("/update-account", s.updateAccount)
			authed.PATCH("/avatar", s.updateAvatar)
			authed.PATCH("/cover-image", s.updateCover)
			authed.GET("/history", s.watchHistory)
			authed.POST("/history/:videoId", s.recordView)
		}
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ctx caps every handler at one storage round-trip plus hashing.
func (s *Server) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}
