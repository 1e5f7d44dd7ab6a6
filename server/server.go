// Package server implements the HTTP surface of the translation daemon.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/transbasket/cache"
	"github.com/ZaguanLabs/transbasket/config"
	"github.com/ZaguanLabs/transbasket/metrics"
	"github.com/ZaguanLabs/transbasket/provider"
)

// Server ties the HTTP layer, the cache and the external translator
// together. Each connection is served on its own goroutine by the HTTP
// layer; all of them share the one cache façade.
type Server struct {
	cfg        *config.Config
	cache      *cache.Cache
	translator provider.Translator
	maintainer *cache.Maintainer
	logger     *zap.Logger
	http       *http.Server
}

// New builds a server. Start launches it; Shutdown stops it and joins
// the maintainer before returning.
func New(cfg *config.Config, c *cache.Cache, t provider.Translator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:        cfg,
		cache:      c,
		translator: t,
		logger:     logger,
		maintainer: cache.NewMaintainer(c, cache.MaintainerOptions{
			CleanupEnabled: cfg.Cache.CleanupEnabled,
			CleanupDays:    cfg.Cache.CleanupDays,
			Logger:         logger,
		}),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), metrics.HTTPMetrics())

	engine.POST("/translate", s.handleTranslate)
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Listen, cfg.Port),
		Handler:      engine,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 0, // translation latency is bounded by the provider timeout
	}

	return s
}

// Start launches the maintainer and serves HTTP until Shutdown is
// called or the listener fails.
func (s *Server) Start() error {
	s.maintainer.Start()

	s.logger.Info("http server starting",
		zap.String("addr", s.http.Addr),
		zap.String("cache_backend", string(s.cache.Kind())),
		zap.Int("cache_threshold", s.cfg.Cache.Threshold))

	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, stops the maintainer and saves
// the cache one final time. The caller closes the cache afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping")

	err := s.http.Shutdown(ctx)
	s.maintainer.Stop()

	if saveErr := s.cache.Save(); saveErr != nil {
		s.logger.Warn("final cache save failed", zap.Error(saveErr))
	}
	return err
}

// SaveCache persists the cache and logs its statistics. Wired to SIGHUP
// so operators can checkpoint a running daemon.
func (s *Server) SaveCache() {
	if err := s.cache.Save(); err != nil {
		s.logger.Warn("cache save failed", zap.Error(err))
		return
	}

	stats, err := s.cache.Stats(s.cfg.Cache.Threshold, s.cfg.Cache.CleanupDays)
	if err != nil {
		s.logger.Warn("cache stats failed", zap.Error(err))
		return
	}

	metrics.CacheEntries.Set(float64(stats.Total))
	s.logger.Info("translation cache saved",
		zap.Int("total", stats.Total),
		zap.Int("active", stats.Active),
		zap.Int("expired", stats.Expired))
}
