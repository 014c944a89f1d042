package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/backline-audio/engine/internal/conf"
	"github.com/backline-audio/engine/internal/controlplane"
	"github.com/backline-audio/engine/internal/datastore"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/importpipeline"
	"github.com/backline-audio/engine/internal/logging"
	"github.com/backline-audio/engine/internal/mixer"
	"github.com/backline-audio/engine/internal/outputdriver"
	"github.com/backline-audio/engine/internal/songcache"
	"github.com/backline-audio/engine/internal/songloader"
)

var log = logging.ForService("cmd")

const shutdownTimeout = 10 * time.Second

func serveCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Control Plane and playback engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(settings)
		},
	}
}

func runServe(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := datastore.Open(settings.Store.Path, settings.Debug)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer func() { _ = store.Close() }()

	bus := events.New(events.DefaultConfig())

	budget := settings.Audio.CacheByteBudget
	if budget == 0 {
		budget = songcache.DefaultByteBudget()
	}

	loader := songloader.New(store, bus, songloader.Config{
		CanonicalSampleRate: conf.DefaultCanonicalSampleRate,
		PoolSize:            settings.Workers.DecodePoolSize,
	})
	cache := songcache.New(loader, bus, budget)
	m := mixer.New()
	driver := outputdriver.New(m, bus, outputdriver.Config{
		SampleRate:   uint32(conf.DefaultCanonicalSampleRate),
		BufferFrames: uint32(settings.Audio.BufferSizeFrames),
	})
	importer := importpipeline.New(store, bus)

	server := controlplane.New(m, cache, store, driver, importer, bus)

	if err := driver.Start(settings.Audio.PreferredOutputDevice); err != nil {
		log.Warn("failed to open output device at startup, continuing without audio output", "error", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start(settings.HTTP.ListenAddress)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("control plane exited: %w", err)
		}
	case <-quit:
		log.Info("shutdown signal received, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("error during control plane shutdown", "error", err)
	}
	_ = driver.Stop()
	if err := bus.Shutdown(shutdownTimeout); err != nil {
		log.Error("error during event bus shutdown", "error", err)
	}
	return nil
}
