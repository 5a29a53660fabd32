package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/busbooking/api"
	"github.com/Domenick1991/busbooking/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// SessionSweeper drops wizard sessions that have been idle for maxIdle.
type SessionSweeper interface {
	ExpireIdle(ctx context.Context, maxIdle time.Duration) ([]string, error)
}

// NewRouter mounts the wizard API under /api/v1.
func NewRouter(logger *slog.Logger, sessions *api.SessionHandler, cities *api.CityHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	sessions.Register(v1.Group("/sessions"))
	cities.Register(v1.Group("/cities"))
	return engine
}

// Run serves HTTP and sweeps idle sessions until ctx is canceled or either
// of them fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, sweeper SessionSweeper, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	})
	g.Go(func() error {
		SweepSessions(gctx, sweeper, cfg.Booking.SessionTTL(), cfg.Worker.SessionSweepInterval(), logger)
		return nil
	})
	return g.Wait()
}

// SweepSessions expires idle sessions every interval until ctx is done.
func SweepSessions(ctx context.Context, sweeper SessionSweeper, maxIdle, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := sweeper.ExpireIdle(ctx, maxIdle)
			if err != nil {
				logger.Warn("expire sessions failed", "error", err)
				continue
			}
			if len(expired) > 0 {
				logger.Info("expired idle sessions", "count", len(expired))
			}
		}
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
