// Command mock-github serves a small in-memory subset of the GitHub REST API
// for running the patcher locally. Point GITHUB_API_URL at it.
package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/pkg/logging"
)

func main() {
	log := logging.New()

	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}
	baseURL := os.Getenv("MOCK_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	s := newStore(baseURL)
	seedRepos(s)
	log.Info("seeded repos", "repos", len(s.listRepos()))

	r := newRouter(s, log)

	log.Info("mock-github starting", "port", port, "baseURL", baseURL)
	if err := r.Run(":" + port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newRouter(s *store, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware("mock-github"), requestLogger(log))
	registerHTMLRoutes(r, s, log)
	registerAPIRoutes(r, s, log)
	return r
}

// requestLogger logs each request through slog instead of gin's default writer.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
