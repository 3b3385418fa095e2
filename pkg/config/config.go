// Package config loads host settings from a .env file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/kernel/manifold"
	"github.com/chazu/birdomatic/pkg/kernel/sdfx"
	"github.com/joho/godotenv"
)

const (
	KernelSdfx     = "sdfx"
	KernelManifold = "manifold"
)

// precisionCells maps the coarse precision names onto marching cubes
// resolutions.
var precisionCells = map[string]int{
	"low": 64,
	"med": sdfx.DefaultMeshCells,
	"hi":  160,
}

// Config holds the host configuration.
type Config struct {
	Environment string
	SentryDSN   string

	// Geometry
	Kernel    string // "sdfx" or "manifold"
	Precision string // "low", "med" or "hi"
	MeshCells int    // resolved from BIRD_MESH_CELLS or Precision

	// Hosts
	LogLevel  string
	Addr      string
	OutputDir string
}

// Load reads .env from the working directory if present, then the
// environment. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		Kernel:      strings.ToLower(getEnv("BIRD_KERNEL", KernelSdfx)),
		Precision:   strings.ToLower(getEnv("BIRD_PRECISION", "med")),
		LogLevel:    getEnv("BIRD_LOG_LEVEL", "info"),
		Addr:        getEnv("BIRD_ADDR", ":8080"),
		OutputDir:   getEnv("BIRD_OUTPUT_DIR", "."),
	}

	switch cfg.Kernel {
	case KernelSdfx, KernelManifold:
	default:
		return nil, fmt.Errorf("config: BIRD_KERNEL: unknown kernel %q", cfg.Kernel)
	}

	cells, ok := precisionCells[cfg.Precision]
	if !ok {
		return nil, fmt.Errorf("config: BIRD_PRECISION: expected low, med or hi, got %q", cfg.Precision)
	}
	cfg.MeshCells = cells

	if raw := getEnv("BIRD_MESH_CELLS", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: BIRD_MESH_CELLS: expected a positive integer, got %q", raw)
		}
		cfg.MeshCells = n
	}

	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: BIRD_LOG_LEVEL: %w", err)
	}
	return l, nil
}

// SlogLevel is the configured log level, or info if it does not parse.
func (c *Config) SlogLevel() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds a text logger writing to stderr at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.SlogLevel()}))
}

// IsProduction reports whether the host runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewKernel builds the configured geometry kernel. When the manifold
// kernel is requested but was not compiled in, it logs the reason and
// falls back to sdfx.
func NewKernel(c *Config, log *slog.Logger) kernel.Kernel {
	if log == nil {
		log = slog.Default()
	}
	if c.Kernel == KernelManifold {
		k, err := manifold.New()
		if err == nil {
			log.Info("using manifold kernel")
			return k
		}
		log.Warn("manifold kernel unavailable, falling back to sdfx", "err", err)
	}
	log.Info("using sdfx kernel", "cells", c.MeshCells)
	return sdfx.New(sdfx.WithMeshCells(c.MeshCells), sdfx.WithLogger(log))
}
