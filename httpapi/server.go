package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	coreconfig "github.com/m3rciful/diaglink/core/config"
	"github.com/m3rciful/diaglink/core/logger"
	"log/slog"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP face of the relay: liveness, token lookup, the
// Telegram webhook, and the completion callback from the external client.
type Server struct {
	engine *gin.Engine
	addr   string
}

// NewServer builds the gin engine and wires all routes.
func NewServer(cfg coreconfig.HTTPConfig, svc TokenService, bot UpdateSink) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger())

	h := &handlers{svc: svc, bot: bot}

	engine.GET("/health", h.health)
	engine.GET("/api/token/:token", h.getToken)
	engine.POST("/tg/webhook", h.webhook)
	engine.POST("/complete", h.complete)

	return &Server{
		engine: engine,
		addr:   fmt.Sprintf("%s:%d", cfg.Listen, cfg.Port),
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http", "listen", slog.String("listen", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("httpapi: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	logger.Info(context.Background(), "http", "stopped")
	return <-errCh
}
