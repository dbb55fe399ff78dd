// Package main is the entry point for the storefront API server. Its job
// is to load configuration, build the shared dependencies, and hand off
// to internal/server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/storefront/internal/config"
	"github.com/sakif/storefront/internal/imagehost"
	"github.com/sakif/storefront/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure the database directory exists before the driver tries to
	// create the file.
	if dir := filepath.Dir(cfg.DBPath); dir != "." && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// The image host is optional: without it the server still runs and
	// only image-upload routes fail.
	var images imagehost.Uploader = imagehost.Disabled{}
	if cfg.ImageHostURL != "" {
		images = imagehost.NewClient(cfg.ImageHostURL, cfg.ImageHostKey)
	} else {
		logger.Warn("IMAGE_HOST_URL not set — image uploads are disabled")
	}

	srv, err := server.New(cfg, logger, images)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
