package main

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/wifitify/internal/adminserver"
	"github.com/lcalzada-xor/wifitify/internal/capture"
	"github.com/lcalzada-xor/wifitify/internal/channel"
	"github.com/lcalzada-xor/wifitify/internal/config"
	"github.com/lcalzada-xor/wifitify/internal/domain"
	"github.com/lcalzada-xor/wifitify/internal/scheduler"
	"github.com/lcalzada-xor/wifitify/internal/storage"
	"github.com/lcalzada-xor/wifitify/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("fatal: could not load configuration", "error", err)
		os.Exit(1)
	}

	baseLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(baseLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessionID := uuid.NewString()
	logger := baseLogger.With("session", sessionID)
	logger.Info("wifitify starting", "device", cfg.Device)

	shutdownTracer, err := telemetry.InitTracer(sessionID)
	if err != nil {
		logger.Error("fatal: could not initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()
	telemetry.InitMetrics()

	if err := enableMonitorMode(cfg.Device); err != nil {
		logger.Error("fatal: could not enable monitor mode", "device", cfg.Device, "error", err)
		os.Exit(1)
	}
	defer disableMonitorMode(cfg.Device, logger)

	store, err := storage.Open(cfg.File.DatabaseURL)
	if err != nil {
		logger.Error("fatal: could not open catalog store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	schedulerCfg := domain.SchedulerConfig{
		AlwaysSweep:               cfg.File.Collector.AlwaysSweep,
		FixedChannel:              cfg.File.Collector.FixedChannel,
		TimeBetweenSweeps:         cfg.TimeBetweenSweeps,
		SweepChannelSwitchTimeout: cfg.SweepChannelSwitchTimeout,
		ChannelSwitchTimeout:      cfg.ChannelSwitchTimeout,
	}
	state := domain.NewAppState(schedulerCfg)

	stations, err := store.KnownStations(ctx)
	if err != nil {
		logger.Error("fatal: could not load known stations", "error", err)
		os.Exit(1)
	}
	devices, err := store.KnownDevices(ctx)
	if err != nil {
		logger.Error("fatal: could not load known devices", "error", err)
		os.Exit(1)
	}
	links, err := store.StationDeviceMap(ctx)
	if err != nil {
		logger.Error("fatal: could not load station/device links", "error", err)
		os.Exit(1)
	}
	state.LoadSnapshot(stations, devices, links)

	if cfg.File.Collector.SweepOnStartup {
		state.ScheduleSweep()
	}

	decoded := make(chan capture.Decoded, 256)
	worker, err := capture.Open(cfg.Device, decoded, logger)
	if err != nil {
		logger.Error("fatal: could not open capture device", "device", cfg.Device, "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run()
	}()

	handler := scheduler.NewObservationHandler(store, state, logger)
	loop := scheduler.NewLoop(cfg.Device, decoded, state, channel.DefaultController, handler, logger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	admin := adminserver.New(cfg.File.AdminAddr, store, state, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := admin.Run(ctx); err != nil {
			logger.Error("admin server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()

	// Grace period for in-flight handler goroutines to finish their
	// store writes before the deferred store.Close() runs.
	time.Sleep(time.Second)
	logger.Info("shutdown complete")
}

// enableMonitorMode puts device into monitor mode ahead of capture,
// mirroring the sequence a wireless card needs: bring it down, flip the
// type, bring it back up.
func enableMonitorMode(device string) error {
	if err := runCmd("ip", "link", "set", device, "down"); err != nil {
		return err
	}
	if err := runCmd("iw", device, "set", "type", "monitor"); err != nil {
		return err
	}
	return runCmd("ip", "link", "set", device, "up")
}

// disableMonitorMode restores device to managed mode on shutdown. Errors
// are logged, not propagated: we're already exiting.
func disableMonitorMode(device string, logger *slog.Logger) {
	if err := runCmd("ip", "link", "set", device, "down"); err != nil {
		logger.Warn("could not bring device down while restoring managed mode", "device", device, "error", err)
	}
	if err := runCmd("iw", device, "set", "type", "managed"); err != nil {
		logger.Warn("could not restore managed mode", "device", device, "error", err)
	}
	if err := runCmd("ip", "link", "set", device, "up"); err != nil {
		logger.Warn("could not bring device back up", "device", device, "error", err)
	}
}

func runCmd(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return &cmdError{name: name, args: args, output: out, err: err}
	}
	return nil
}

type cmdError struct {
	name   string
	args   []string
	output []byte
	err    error
}

func (e *cmdError) Error() string {
	return e.name + ": " + e.err.Error() + ": " + string(e.output)
}

func (e *cmdError) Unwrap() error {
	return e.err
}
