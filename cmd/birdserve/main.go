// Command birdserve serves the bird generator over HTTP.
package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/chazu/birdomatic/pkg/bird"
	"github.com/chazu/birdomatic/pkg/config"
	"github.com/chazu/birdomatic/pkg/server"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

func main() {
	addr := flag.String("addr", "", "listen address (overrides BIRD_ADDR)")
	maxBuilds := flag.Int("max-builds", runtime.NumCPU(), "concurrent tessellations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger := cfg.NewLogger()
	bird.SetLogger(logger)

	active, flush, err := cfg.InitSentry(releaseVersion)
	if err != nil {
		logger.Error("failed to initialize sentry", "err", err)
	} else if active {
		logger.Info("sentry initialized", "environment", cfg.Environment, "release", releaseVersion)
	}
	defer flush()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(config.NewKernel(cfg, logger),
		server.WithLogger(logger),
		server.WithMaxBuilds(*maxBuilds),
	)
	router := srv.SetupRouter(active)

	logger.Info("starting server", "addr", cfg.Addr, "kernel", cfg.Kernel, "precision", cfg.Precision)
	if err := router.Run(cfg.Addr); err != nil {
		sentry.CaptureException(err)
		flush()
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
