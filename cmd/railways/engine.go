package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	railways "github.com/rishitkumar8/Railways"
	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/adapters/memory"
	"github.com/rishitkumar8/Railways/pkg/adapters/redis"
	"github.com/rishitkumar8/Railways/pkg/config"
	"github.com/rishitkumar8/Railways/pkg/ports"
)

// loadConfig reads --config and applies every --set override.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	overrides, _ := cmd.Flags().GetStringArray("set")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the process logger and makes it the slog default.
func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	level := logging.ParseLevel(cfg.Log.Level)
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	logger := logging.New(level)
	slog.SetDefault(logger)
	return logger
}

// newFeed connects the configured risk feed. The returned closer is never nil.
func newFeed(ctx context.Context, cfg config.FeedConfig, logger *slog.Logger) (ports.RiskFeed, func(), error) {
	switch cfg.Backend {
	case "memory":
		feed, err := memory.LoadFile(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("load risk feed: %w", err)
		}
		logger.Info("Risk feed loaded", "backend", "memory", "file", cfg.File)
		return feed, func() {}, nil
	case "redis":
		r := cfg.Redis
		feed := redis.New(r.Addr, r.Password, r.DB,
			redis.WithPrefix(r.Prefix),
			redis.WithTTL(r.TTL),
			redis.WithTimeout(r.Timeout),
		)
		if err := feed.Ping(ctx); err != nil {
			// The engine degrades to kinematics-only scores while Redis is down.
			logger.Warn("Risk feed unreachable", "backend", "redis", "addr", r.Addr, "error", err)
		} else {
			logger.Info("Risk feed connected", "backend", "redis", "addr", r.Addr)
		}
		return feed, func() { _ = feed.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

type engineSetup struct {
	engine *railways.Engine
	config config.Config
	logger *slog.Logger
	close  func()
}

// newEngine wires configuration, logging and the risk feed into an engine.
func newEngine(cmd *cobra.Command, extra ...railways.Option) (*engineSetup, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, cfg)

	feed, closeFeed, err := newFeed(cmd.Context(), cfg.Feed, logger)
	if err != nil {
		return nil, err
	}

	buf := logging.NewBuffer(cfg.Log.Buffer, logging.ParseLevel(cfg.Log.Level))
	opts := append([]railways.Option{
		railways.WithConfig(cfg),
		railways.WithLogger(logger),
		railways.WithLogBuffer(buf),
		railways.WithRiskFeed(feed),
	}, extra...)

	eng, err := railways.New(opts...)
	if err != nil {
		closeFeed()
		return nil, err
	}
	return &engineSetup{
		engine: eng,
		config: cfg,
		logger: logger,
		close: func() {
			eng.Close()
			closeFeed()
		},
	}, nil
}
