// Command apiserver serves the explorer HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/molexplorer/internal/app"
	"github.com/turtacn/molexplorer/internal/config"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

const defaultConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	cfg, watchPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, watchPath, logger); err != nil {
		logger.Error("server exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, watchPath string, logger logging.Logger) error {
	a, err := app.New(cfg, logger, app.WithVersion(version))
	if err != nil {
		return err
	}
	defer a.Close()

	if watchPath != "" {
		if err := config.Watch(watchPath, config.HotReload(logger, a.Engine)); err != nil {
			logger.Warn("config hot reload disabled", logging.Err(err))
		}
	}

	srv := a.Server()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("starting molexplorer API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Stop(ctx)
}

// loadConfig falls back to MOLX_* environment variables over the defaults
// when the file is missing. It returns the path to watch, empty without a
// file.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrConfigFileNotFound) {
		cfg, err = config.LoadFromEnv()
		return cfg, "", err
	}
	return cfg, path, err
}
