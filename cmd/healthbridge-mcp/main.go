package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/healthbridge/internal/config"
	"github.com/claude/healthbridge/internal/health"
	"github.com/claude/healthbridge/internal/mcp"
	"github.com/claude/healthbridge/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remoteURL := flag.String("remote", "", "HealthBridge server URL; when set, tools call the REST API instead of the database")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("healthbridge-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var backend mcp.Backend
	if *remoteURL != "" {
		backend = mcp.NewHTTPClient(*remoteURL)
		log.Info("remote mode", "server", *remoteURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		if cfg.Store.Backend != config.BackendPostgres {
			log.Error("local mode requires the postgres store backend; use -remote for a running server", "backend", cfg.Store.Backend)
			os.Exit(1)
		}

		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		loc, timeout, err := cfg.Health.Resolve()
		if err != nil {
			log.Error("invalid health config", "error", err)
			os.Exit(1)
		}
		backend = health.NewService(db, health.Options{
			Location:           loc,
			QueryTimeout:       timeout,
			WorkoutConcurrency: cfg.Health.WorkoutConcurrency,
		}, log)
	}

	s := mcp.New(backend, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
