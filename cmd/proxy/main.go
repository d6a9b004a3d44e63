package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/config"
	"github.com/papercomputeco/lens/pkg/envelope"
	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/logger"
	"github.com/papercomputeco/lens/pkg/profile"
	"github.com/papercomputeco/lens/proxy"
)

func main() {
	// Parse command line flags. Empty values keep what the config file says.
	configPath := flag.String("config", "", "Path to a TOML config file")
	listenAddr := flag.String("listen", "", "Address to listen on (default :8080)")
	upstreamURL := flag.String("upstream", "", "Messages API base URL (default https://api.anthropic.com)")
	dbPath := flag.String("db", "", "Path to SQLite ledger (default: in-memory)")
	profilesPath := flag.String("profiles", "", "Path to agent profiles TOML")
	imageRoot := flag.String("image-root", "", "Directory requests may name image files under")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Set up logger
	logger := logger.NewLogger(*debug)
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
		}
		cfg = loaded
	}
	if *listenAddr != "" {
		cfg.Proxy.Listen = *listenAddr
	}
	if *upstreamURL != "" {
		cfg.Proxy.Upstream = *upstreamURL
	}
	if *dbPath != "" {
		cfg.Proxy.DB = *dbPath
	}
	if *profilesPath != "" {
		cfg.Profiles.Path = *profilesPath
	}
	if *imageRoot != "" {
		cfg.Images.Root = *imageRoot
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("lens proxy starting",
		zap.String("listen", cfg.Proxy.Listen),
		zap.String("upstream", cfg.Proxy.Upstream),
		zap.String("model", cfg.Proxy.Model),
		zap.String("on_invalid", cfg.Images.OnInvalid),
		zap.Bool("debug", *debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiles := profile.NewStore(logger)
	if cfg.Profiles.Path != "" {
		if err := profiles.Load(cfg.Profiles.Path); err != nil {
			logger.Fatal("failed to load profiles", zap.String("path", cfg.Profiles.Path), zap.Error(err))
		}

		if cfg.Profiles.Watch {
			if err := profiles.Watch(ctx, cfg.Profiles.Path, nil); err != nil {
				logger.Fatal("failed to watch profiles", zap.Error(err))
			}
		}
	}

	validator := cfg.Validator()
	preparer := envelope.NewPreparer(
		image.NewEncoder(validator, logger),
		envelope.WithImagePolicy(cfg.ImagePolicy()),
		envelope.WithLogger(logger),
	)

	// Create and run the proxy
	p, err := proxy.New(proxy.Config{
		ListenAddr:  cfg.Proxy.Listen,
		UpstreamURL: cfg.Proxy.Upstream,
		DBPath:      cfg.Proxy.DB,
		Model:       cfg.Proxy.Model,
		MaxTokens:   cfg.Proxy.MaxTokens,
		MaxRetries:  cfg.Proxy.MaxRetries,
	}, logger,
		proxy.WithValidator(validator),
		proxy.WithPreparer(preparer),
		proxy.WithProfiles(profiles),
		proxy.WithImageRoot(cfg.Images.Root),
	)
	if err != nil {
		logger.Fatal("failed to create proxy", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := p.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	if err := p.Run(); err != nil {
		logger.Fatal("proxy server failed", zap.Error(err))
	}
}
