// Package main is the entry point for the snippets API server.
//
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (flags, config file, environment)
// 2. Create dependencies (logger, executor)
// 3. Start the application
//
// All actual logic lives in internal/ packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/sakif/snippets/internal/config"
	"github.com/sakif/snippets/internal/executor"
	"github.com/sakif/snippets/internal/executor/docker"
	"github.com/sakif/snippets/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// e.g. snippets --config snippets.yaml --port 9000 --log-format json
	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := config.LoadFlags(pflag.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	if cfg.Database.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. INITIALIZE EXECUTOR ===
	// The Docker executor is optional: without it the server still starts and
	// POST /snippets/{id}/run/ answers 503.
	var exec executor.Executor
	if cfg.Executor.Enabled {
		dockerCfg := docker.DefaultConfig()
		dockerCfg.Languages = cfg.Executor.Languages
		dockerCfg.PoolSize = cfg.Executor.PoolSize
		dockerCfg.Timeout = cfg.Executor.Timeout

		dockerExec, err := docker.New(dockerCfg, logger)
		if err != nil {
			logger.Warn("docker executor unavailable; snippet runs are disabled",
				slog.String("error", err.Error()),
			)
		} else {
			defer dockerExec.Close()
			// Assigned only on success: a nil *docker.Executor inside the
			// interface would not compare equal to nil.
			exec = dockerExec
		}
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger, exec)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
