package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"

	"meshgrowth/config"
	"meshgrowth/core"
	"meshgrowth/rendering"
	"meshgrowth/server"
	"meshgrowth/simulation"
)

func main() {
	// raylib needs the main thread
	runtime.LockOSThread()

	var (
		configPath = flag.String("config", "settings.json", "Settings file")
		mode       = flag.String("mode", "view", "Run mode (run, serve, view)")
		steps      = flag.Int("steps", 100, "Number of steps in run mode")
		port       = flag.Int("port", 0, "Override the server port")
	)
	flag.Parse()

	settings, found, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *port > 0 {
		settings.Server.Port = *port
	}

	logger, err := core.NewLogger(settings.Log.Level, settings.Log.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if !found {
		logger.Info("settings file not found, using defaults", zap.String("path", *configPath))
	}

	var newSystem simulation.Factory = func() (*simulation.System, error) {
		positions, faces, err := settings.Seed.Build()
		if err != nil {
			return nil, err
		}
		return simulation.NewFromFaces(positions, faces, simulation.WithLogger(logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "run":
		err = runHeadless(ctx, newSystem, settings, *steps, logger)
	case "serve":
		err = serve(ctx, newSystem, settings, logger)
	case "view":
		err = view(ctx, newSystem, settings, logger)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("mesh growth stopped", zap.Error(err))
	}
}

func runHeadless(ctx context.Context, newSystem simulation.Factory, settings config.Settings, steps int, logger *zap.Logger) error {
	system, err := newSystem()
	if err != nil {
		return err
	}
	params := settings.Simulation.Params()
	subiterations := max(settings.Simulation.Subiterations, 1)

	start := time.Now()
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := 0; j < subiterations; j++ {
			if err := system.Update(params); err != nil {
				return err
			}
		}
		if (i+1)%10 == 0 || i == steps-1 {
			stats := system.Stats()
			logger.Info("progress",
				zap.Int("step", stats.Step),
				zap.Int("vertices", stats.Vertices),
				zap.Int("faces", stats.Faces),
				zap.Float64("maxDisplacement", stats.MaxDisplacement))
		}
	}

	logger.Info("run complete",
		zap.Int("steps", steps*subiterations),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func serve(ctx context.Context, newSystem simulation.Factory, settings config.Settings, logger *zap.Logger) error {
	srv, err := server.New(newSystem, settings.Simulation.Params(),
		server.WithLogger(logger),
		server.WithInterval(time.Duration(settings.Server.UpdateIntervalMs)*time.Millisecond),
		server.WithSubiterations(settings.Simulation.Subiterations))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", settings.Server.Port),
		Handler: srv.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", httpServer.Addr))
		errs <- httpServer.ListenAndServe()
	}()
	go srv.Run(ctx)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func view(ctx context.Context, newSystem simulation.Factory, settings config.Settings, logger *zap.Logger) error {
	viewer, err := rendering.NewViewer(rendering.Config{
		Width:         settings.Viewer.Width,
		Height:        settings.Viewer.Height,
		TargetFPS:     settings.Viewer.TargetFPS,
		Subiterations: settings.Simulation.Subiterations,
	}, newSystem, settings.Simulation.Params(), logger)
	if err != nil {
		return err
	}
	return viewer.Run(ctx)
}
