package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"chatfs/internal/cli"
	"chatfs/internal/config"
	"chatfs/internal/events"
	"chatfs/internal/logging"
	"chatfs/internal/logging/sl"
	"chatfs/internal/provider"
	"chatfs/internal/transport/memory"
)

func main() {
	cfg := config.MustLoad()
	log := logging.Setup(cfg.Env)

	log.Info("starting chatfs",
		slog.String("env", cfg.Env),
		slog.String("dbChannelName", cfg.DbChannelName),
		slog.String("dataChannelName", cfg.DataChannelName),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalCh
		log.Info("shutdown signal received", slog.Any("signal", sig))
		cancel()
	}()

	key, err := cfg.DecodedEncryptionKey()
	if err != nil {
		log.Error("invalid encryption key", sl.Err(err))
		os.Exit(1)
	}

	cachePath := filepath.Join(os.TempDir(), "chatfs-cache.db")
	if cfg.LocalPath != "" {
		cachePath = filepath.Join(cfg.LocalPath, ".chatfs-cache.db")
	}
	cache, err := provider.OpenCache(cachePath)
	if err != nil {
		log.Error("failed to open local cache", sl.Err(err))
		os.Exit(1)
	}
	defer cache.Close()

	// The chat transport is an external collaborator (spec §1); this
	// reference implementation is an in-memory adapter, suitable for
	// local operation and testing but not for talking to a real chat
	// service. A production deployment supplies its own transport.Adapter.
	// Its messages are always authored as memory.BotAuthorID; the
	// provider's own bot identity must match for self-authored index
	// messages to be recognized during discovery.
	adapter := memory.New(log)
	hub := events.NewHub(log)

	p := provider.New(adapter, hub, cache, memory.BotAuthorID, provider.Config{
		DbChannelName:     cfg.DbChannelName,
		DataChannelName:   cfg.DataChannelName,
		LocalPath:         cfg.LocalPath,
		EncryptionKey:     key,
		MaxAttachmentSize: cfg.MaxAttachmentSize,
		ResyncPeriod:      cfg.ResyncPeriod,
	}, log)
	defer p.Dispose()

	appCtx := &cli.AppContext{Provider: p, Config: cfg, Log: log}
	root := cli.NewRootCommand(appCtx)
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		log.Error("command failed", sl.Err(err))
		os.Exit(1)
	}
}
