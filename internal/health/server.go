// Package health: HTTP-сервер "я жив": баннер, liveness/readiness и /metrics.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const banner = "Hello, m-bot running!"

type Server struct {
	echo      *echo.Echo
	addr      string
	log       *slog.Logger
	ready     func() bool
	startTime time.Time
}

// New: ready сообщает, подключён ли бот к шлюзу; metrics может быть nil.
func New(addr string, ready func() bool, metrics http.Handler, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, addr: addr, log: log, ready: ready, startTime: time.Now()}
	e.GET("/", s.handleBanner)
	e.GET("/health/live", s.handleLiveness)
	e.GET("/health/ready", s.handleReadiness)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.echo }

// Run блокируется до отмены ctx, затем корректно гасит сервер.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("health server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) handleBanner(c echo.Context) error {
	return c.String(http.StatusOK, banner)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	if s.ready != nil && !s.ready() {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "gateway disconnected"})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}
