package webhook

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server is the long-running webhook listener.
type Server struct {
	addr   string
	router *gin.Engine
	log    zerolog.Logger
	http   *http.Server
}

// NewServer mounts the handler at path on a fresh gin engine. The recovery
// layer converts any panic in the pipeline into a generic 500; a single bad
// delivery must never take the listener down.
func NewServer(addr, path string, h *Handler, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).
			Msg("panic while processing webhook delivery")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"status": "error", "message": "internal server error"})
	}))
	router.POST(path, h.Handle)

	return &Server{
		addr:   addr,
		router: router,
		log:    log,
	}
}

// Router exposes the engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until SIGINT/SIGTERM or a listener error, then shuts down
// gracefully, draining in-flight deliveries.
func (s *Server) Run() error {
	s.http = &http.Server{
		Addr:        s.addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("webhook listener started")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-osSignals:
		s.log.Info().Str("signal", sig.String()).Msg("shutting down webhook listener")
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops accepting deliveries and waits for in-flight ones, bounded
// because a slow Rise Up upload holds its request open.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
