// Package web serves the keep-alive status page and the stats endpoint.
// Hosting platforms that sleep idle processes poll /health to keep the bot
// running.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/glossabot/glossa/internal/bot"
	"github.com/glossabot/glossa/internal/lang"
	"github.com/glossabot/glossa/internal/translator"
)

const statusPage = `<!DOCTYPE html>
<html>
<head><title>Glossa Status</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em;">
  <h1>Glossa Translation Bot</h1>
  <p>Online &amp; running</p>
  <p><a href="/stats">stats</a></p>
</body>
</html>
`

// Options configures the status server.
type Options struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Server exposes /, /health, and /stats.
type Server struct {
	logger    zerolog.Logger
	stats     *bot.Stats
	pending   *bot.PendingReplies
	chain     *translator.Chain
	registry  *lang.Registry
	startedAt time.Time
	opts      Options
}

func NewServer(logger zerolog.Logger, stats *bot.Stats, pending *bot.PendingReplies, chain *translator.Chain, registry *lang.Registry, opts Options) *Server {
	if strings.TrimSpace(opts.Host) == "" {
		opts.Host = "0.0.0.0"
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		logger:    logger,
		stats:     stats,
		pending:   pending,
		chain:     chain,
		registry:  registry,
		startedAt: time.Now().UTC(),
		opts:      opts,
	}
}

// Start blocks serving HTTP until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	e := s.router()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("status server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("status server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start status server: %w", err)
	}
	s.logger.Info().Msg("status server stopped")
	return nil
}

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)
	e.GET("/stats", s.handleStats)
	return e
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTML(http.StatusOK, statusPage)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type statsPayload struct {
	Total            int64            `json:"total"`
	PerLanguage      map[string]int64 `json:"per_language"`
	Providers        []string         `json:"providers"`
	CacheSizes       map[string]int   `json:"cache_sizes"`
	RetainedContexts int              `json:"retained_contexts"`
	Languages        []string         `json:"languages"`
	UptimeSeconds    int64            `json:"uptime_seconds"`
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, statsPayload{
		Total:            s.stats.Total(),
		PerLanguage:      s.stats.Snapshot(),
		Providers:        s.chain.Names(),
		CacheSizes:       s.chain.CacheSizes(),
		RetainedContexts: s.pending.Len(),
		Languages:        s.registry.Codes(),
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
	})
}
