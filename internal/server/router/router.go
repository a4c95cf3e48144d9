package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/vimacontrol/internal/server/handlers"
	"github.com/mamadbah2/vimacontrol/internal/service/auth"
)

// New wires the Gin engine with required routes and middlewares. Everything
// except the auth screen, the breed catalog and the health check sits behind
// the session gate.
func New(authH *handlers.AuthHandler, herdH *handlers.HerdHandler, adviceH *handlers.AdviceHandler, sessions *auth.Service, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/auth/register", authH.Register)
	r.POST("/auth/login", authH.Login)
	r.POST("/auth/logout", authH.Logout)
	r.GET("/breeds", herdH.Breeds)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	gated := r.Group("/", sessionRequired(sessions, logger))
	gated.PUT("/auth/profile", authH.UpdateProfile)
	gated.GET("/herd", herdH.List)
	gated.POST("/herd", herdH.Save)
	gated.GET("/herd/:id", herdH.Get)
	gated.DELETE("/herd/:id", herdH.Delete)
	gated.POST("/herd/:id/production", herdH.RecordProduction)
	gated.DELETE("/herd/:id/production", herdH.DeleteProduction)
	gated.POST("/herd/:id/events", herdH.SaveEvent)
	gated.DELETE("/herd/:id/events/:eventId", herdH.DeleteEvent)
	gated.GET("/dashboard", herdH.Dashboard)
	gated.POST("/advice", adviceH.Ask)
	gated.POST("/advice/production", adviceH.AnalyzeProduction)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// sessionRequired resolves the active session and aborts with 401 when none
// exists, so handlers behind it can assume a logged-in user.
func sessionRequired(sessions *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		session, err := sessions.CurrentSession(c.Request.Context())
		if err != nil {
			if !errors.Is(err, auth.ErrNotAuthenticated) {
				logger.Error("failed resolving session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		c.Set(handlers.SessionContextKey, session)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
