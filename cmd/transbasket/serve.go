package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/transbasket"
	"github.com/ZaguanLabs/transbasket/cache"
	"github.com/ZaguanLabs/transbasket/config"
	"github.com/ZaguanLabs/transbasket/provider"
	"github.com/ZaguanLabs/transbasket/server"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve [-c config_file]",
		Short: "Start the translation proxy daemon.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
		DisableFlagsInUseLine: true,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: transbasket.yaml)")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := transbasket.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting transbasket",
		zap.String("version", transbasket.FullVersion()),
		zap.String("base_url", cfg.OpenAI.BaseURL),
		zap.String("model", cfg.OpenAI.Model))

	kind, err := cache.ParseKind(cfg.Cache.Backend)
	if err != nil {
		return err
	}

	c, err := cache.New(cache.Options{
		Kind:        kind,
		Path:        cfg.Cache.Path,
		JournalMode: cfg.Cache.JournalMode,
		Synchronous: cfg.Cache.Synchronous,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	translator := buildTranslator(cfg)
	srv := server.New(cfg, c, translator, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case err := <-errCh:
			// The listener failed: stop the maintainer before closing the cache.
			srv.Shutdown(context.Background())
			c.Close()
			return err

		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				// Checkpoint the cache without shutting down.
				logger.Info("received SIGHUP, saving translation cache")
				srv.SaveCache()
				continue
			}

			logger.Info("shutting down", zap.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			err := srv.Shutdown(ctx)
			cancel()

			if closeErr := c.Close(); closeErr != nil {
				logger.Warn("cache close failed", zap.Error(closeErr))
			}
			logger.Info("shutdown complete")
			return err
		}
	}
}

// buildTranslator assembles the provider chain: the OpenAI client,
// wrapped with rate limiting when configured, wrapped with retry.
func buildTranslator(cfg *config.Config) provider.Translator {
	var t provider.Translator = provider.NewOpenAITranslator(provider.OpenAIConfig{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Model:        cfg.OpenAI.Model,
		Temperature:  cfg.OpenAI.Temperature,
		PromptPrefix: cfg.OpenAI.PromptPrefix,
	})

	if cfg.OpenAI.RequestsPerMinute > 0 {
		t = provider.NewRateLimitedTranslator(t, provider.RateLimitConfig{
			RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		})
	}

	retryCfg := transbasket.DefaultRetryConfig()
	if cfg.OpenAI.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.OpenAI.MaxRetries
	}
	return provider.NewRetryingTranslator(t, retryCfg)
}
