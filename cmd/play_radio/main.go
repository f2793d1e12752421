// Command play_radio runs the radio daemon: the fixed-interval scheduler and
// mixer loop plus the read-only status HTTP API, until interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/radiodial/station/internal/api"
	"github.com/radiodial/station/internal/app"
	"github.com/radiodial/station/internal/config"
	"github.com/radiodial/station/internal/mixer"
)

// defaultConfigPath is the known location play_radio reads from when
// RADIO_CONFIG is unset, so the binary takes no required arguments.
const defaultConfigPath = "/etc/radio/radio.toml"

func main() {
	runtimePath := envOr("RADIO_CONFIG", defaultConfigPath)
	flag.StringVar(&runtimePath, "config", runtimePath, "path to runtime config TOML (overrides RADIO_CONFIG)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rt, err := config.LoadRuntime(runtimePath)
	if err != nil {
		slog.Error("play_radio: load runtime config failed", "error", err)
		os.Exit(1)
	}

	stations, err := config.LoadStations(rt.StationTomlsGlob)
	if err != nil {
		slog.Error("play_radio: load station configs failed", "error", err)
		os.Exit(1)
	}

	backend, err := mixer.NewOtoBackend()
	if err != nil {
		slog.Error("play_radio: init audio backend failed", "error", err)
		os.Exit(1)
	}

	a, err := app.New(rt, stations, backend)
	if err != nil {
		slog.Error("play_radio: init app failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("play_radio: close app failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("play_radio: received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	server := api.NewServer(a, rt.APIHost, rt.APIPort)
	go func() {
		if err := server.Start(ctx); err != nil {
			slog.Error("play_radio: api server error", "error", err)
		}
	}()

	a.Run(ctx)

	slog.Info("play_radio: shutting down gracefully")
	time.Sleep(200 * time.Millisecond)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
