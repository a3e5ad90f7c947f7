package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apihttp "github.com/aperture-desktop/shell/internal/api/http"
	"github.com/aperture-desktop/shell/internal/config"
	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/manifest"
	"github.com/aperture-desktop/shell/internal/monitoring"
	"github.com/aperture-desktop/shell/internal/runtime/headless"
	"github.com/aperture-desktop/shell/internal/settings"
	"github.com/aperture-desktop/shell/internal/shell"
)

func main() {
	cfg := config.LoadOrDefault()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics()
	rt := headless.New(time.Duration(cfg.Shell.WindowLoadDelayMS) * time.Millisecond)
	store := settings.New()
	if token := os.Getenv("SHELL_AUTH_TOKEN"); token != "" {
		store.Set(cfg.Shell.AuthTokenKey, token)
	}

	svc := shell.New(shell.Options{
		Runtime: rt,
		Store:   store,
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	})

	loader := manifest.NewLoader(cfg.Shell.ManifestDir, logger)
	configs, err := loader.Load()
	if err != nil {
		logger.Fatal("failed to load manifests", zap.Error(err))
	}
	for _, mc := range configs {
		if err := svc.RegisterHotCategory(mc); err != nil {
			logger.Warn("failed to register hot category",
				zap.String("category", mc.Category),
				zap.Error(err),
			)
		}
	}
	logger.Info("hot categories registered", zap.Int("count", len(configs)))

	svc.Start()

	errChan := make(chan error, 1)
	if cfg.Server.Enabled {
		router := apihttp.NewRouter(svc, logger)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		go func() {
			logger.Info("debug API listening", zap.String("addr", addr))
			errChan <- router.Run(addr)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutting down")
		svc.Shutdown()
	case err := <-errChan:
		logger.Fatal("server error", zap.Error(err))
	}
}
