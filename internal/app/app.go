package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	server "taskbots/server"
	servernet "taskbots/server/internal/net"
	"taskbots/server/internal/observability"
	"taskbots/server/internal/telemetry"
	"taskbots/server/logging"
	loggingSinks "taskbots/server/logging/sinks"
	"taskbots/server/tuning"
)

type Config struct {
	Logger        telemetry.Logger
	Observability observability.Config
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout)},
	}
	if path := os.Getenv("LOG_JSON_PATH"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open json log %s: %w", path, err)
		}
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logConfig, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	tuningPaths := tuning.DefaultPaths()
	if path := os.Getenv("TUNING_PATH"); path != "" {
		tuningPaths = append(tuningPaths, path)
	}
	doc, err := tuning.Load(tuningPaths...)
	if err != nil {
		return fmt.Errorf("failed to load tuning: %w", err)
	}

	hubCfg := server.DefaultHubConfig()
	hubCfg.Tuning = doc
	if raw := os.Getenv("GROUND_BOTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			hubCfg.GroundBots = value
		} else {
			telemetryLogger.Printf("invalid GROUND_BOTS=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("FLYING_BOTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			hubCfg.FlyingBots = value
		} else {
			telemetryLogger.Printf("invalid FLYING_BOTS=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("DEBUG_DRAW"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			hubCfg.Debug = value
		} else {
			telemetryLogger.Printf("invalid DEBUG_DRAW=%q: %v", raw, err)
		}
	}

	observabilityCfg := cfg.Observability
	if raw := os.Getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			observabilityCfg.EnablePprofTrace = value
		} else {
			telemetryLogger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}

	hub := server.NewHubWithConfig(hubCfg, router)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir:     os.Getenv("CLIENT_DIR"),
		Logger:        telemetryLogger,
		Observability: observabilityCfg,
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s", srv.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
