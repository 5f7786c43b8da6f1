package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cleanedge.io/forms/internal/api/handlers"
	"cleanedge.io/forms/internal/api/middleware"
	"cleanedge.io/forms/internal/config"
	"cleanedge.io/forms/internal/observe"
	apperrors "cleanedge.io/forms/internal/pkg/errors"
)

func newRouter(cfg *config.Config, server *handlers.Server, sink observe.Sink) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(recoveryHandler(sink)))
	router.Use(middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	server.RegisterRoutes(router)
	return router
}

// recoveryHandler renders a recovered panic in the same response shape as
// every other error and reports it to the sink; the panic value itself
// never reaches the client.
func recoveryHandler(sink observe.Sink) gin.RecoveryFunc {
	return func(c *gin.Context, recovered interface{}) {
		sink.ReportError(fmt.Errorf("panic recovered: %v", recovered), map[string]string{
			"path":  c.Request.URL.Path,
			"stage": "panic",
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   apperrors.MsgInternal,
		})
	}
}

// corsConfig allows the marketing site origins to POST forms. An empty
// allow-list keeps the permissive default for local development.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}
