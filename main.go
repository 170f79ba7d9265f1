package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/logger"
	"github.com/ecmoce/sysops-agent/daemon/pipeline"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const shutdownGrace = 15 * time.Second

var cli struct {
	ConfigPath string `name:"config" default:"/etc/sysops-agent/config.toml" help:"path to configuration file"`
	Check      bool   `help:"validate the configuration and exit"`
	Version    bool   `help:"print the version and exit"`
}

func main() {
	kong.Parse(&cli)

	if cli.Version {
		fmt.Println(Version)
		os.Exit(0)
	}

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sysops-agent: %v\n", err)
		os.Exit(1)
	}

	if cli.Check {
		fmt.Println("configuration OK")
		os.Exit(0)
	}

	var logWriter io.Writer = os.Stdout
	if cfg.Logging.File != "" {
		fileCfg := logger.FileConfig{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
		}
		if w, err := logger.SetupFile(fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "sysops-agent: %v\n", err)
		} else {
			logWriter = w
		}
	}
	logger.Configure(cfg.Logging.Level, logWriter)
	log := logger.Component("main")

	p, err := pipeline.Build(cfg, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build pipeline")
	}

	config.WatchConfig(cli.ConfigPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", Version).Str("config", cli.ConfigPath).Msg("sysops-agent starting")

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, waiting for pipeline to drain")

	select {
	case <-done:
		log.Info().Msg("pipeline stopped cleanly")
	case <-time.After(shutdownGrace):
		log.Warn().Msg("shutdown grace period elapsed, exiting anyway")
	}
}
