// Package main is the entry point for the communities API server.
//
// main stays minimal: read configuration, build the logger, prepare the
// database directory, start the server. Everything else lives under
// internal/.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/communities/internal/config"
	"github.com/sakif/communities/internal/server"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file read before the environment")
	flag.Parse()

	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// A file-backed SQLite database needs its directory to exist.
	if cfg.DBDriver == "sqlite" && !isMemoryDSN(cfg.DBDSN) {
		dir := filepath.Dir(strings.TrimPrefix(cfg.DBDSN, "file:"))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
