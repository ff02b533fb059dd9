// Package main is the munseo CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seonbi/munseo/internal/config"
	"github.com/seonbi/munseo/internal/models"
	"github.com/seonbi/munseo/internal/pipeline"
	"github.com/seonbi/munseo/internal/server"
	"github.com/seonbi/munseo/internal/storage"
	"github.com/seonbi/munseo/internal/watcher"
	"github.com/seonbi/munseo/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/munseo/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so running from the project
// directory picks up the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "process":
		runProcess()
	case "serve":
		runServe()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("munseo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by every
// subcommand.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	return cfg, logger
}

func runProcess() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	save := fs.Bool("save", false, "store results in the configured database")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: munseo process [flags] <file-or-directory>")
		os.Exit(1)
	}
	target := fs.Arg(0)

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	ctx := context.Background()
	info, err := os.Stat(target)
	if err != nil {
		logger.Fatal("cannot stat target", zap.String("target", target), zap.Error(err))
	}

	var results []*models.DocumentResult
	if info.IsDir() {
		results, err = p.ProcessDir(ctx, target)
		if err != nil {
			logger.Fatal("directory processing failed", zap.Error(err))
		}
	} else {
		results = []*models.DocumentResult{p.ProcessFile(ctx, target)}
	}

	if *save {
		store, err := storage.New(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Fatal("failed to open storage", zap.Error(err))
		}
		defer store.Close()
		for _, r := range results {
			if err := store.SaveResult(ctx, r); err != nil {
				logger.Warn("save result failed", zap.String("source", r.Source), zap.Error(err))
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			logger.Fatal("encode result", zap.Error(err))
		}
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}
	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()

	srv := server.NewServer(p, store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	sync := fs.Bool("sync", true, "process files already present in watched directories")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	dirs := cfg.Watch.Directories
	if fs.NArg() > 0 {
		dirs = fs.Args()
	}
	if len(dirs) == 0 {
		fmt.Println("Usage: munseo watch [flags] <directory>... (or set watch.directories in config)")
		os.Exit(1)
	}

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}
	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()

	recursive := true
	if cfg.Watch.Recursive != nil {
		recursive = *cfg.Watch.Recursive
	}
	w := watcher.New(dirs, cfg.Watch.Extensions, recursive,
		func(path string) {
			result := p.ProcessFile(context.Background(), path)
			if err := store.SaveResult(context.Background(), result); err != nil {
				logger.Warn("save result failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := store.DeleteBySource(context.Background(), path); err != nil {
				logger.Warn("delete by source failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		logger.Fatal("failed to start watcher", zap.Error(err))
	}
	defer w.Stop()
	if *sync {
		w.SyncExistingFiles()
	}
	logger.Info("watching", zap.Strings("directories", dirs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")
}

func printUsage() {
	fmt.Println(`munseo - document text extraction and chunking pipeline

Usage:
  munseo process [flags] <file-or-directory>   Process documents and print results as JSON
  munseo serve [flags]                         Start the HTTP API server
  munseo watch [flags] [directory...]          Watch directories and process changed files
  munseo version                               Show version
  munseo help                                  Show this help

Process Flags:
  --config string    Config file path (default: /usr/local/etc/munseo/config.yaml)
  --debug            Enable debug logging
  --save             Store results in the configured database

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging

Watch Flags:
  --config string    Config file path
  --debug            Enable debug logging
  --sync             Process files already present (default: true)`)
}
