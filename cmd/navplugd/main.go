package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"navplug.szuro.net/internal/api"
	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/internal/host"
	"navplug.szuro.net/internal/input"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/internal/observer"
	"navplug.szuro.net/internal/plugin"
)

func printVersionInfo() {
	fmt.Printf("navplugd %s\n", config.Version)
	fmt.Printf("Git commit: %s\n", config.Commit)
	fmt.Printf("Compilation time: %s\n", config.BuildDate)
}

func main() {
	confPath := flag.String("c", "/etc/navplugd.yaml", "Path of config file")
	version := flag.Bool("v", false, "Show version info")
	flag.Parse()

	if *version {
		printVersionInfo()
		os.Exit(0)
	}

	navConfig, err := config.ParseNavConfig(*confPath)
	if err != nil {
		logger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.SetLogLevel(navConfig.GetLogLevel())

	var observers []observer.Observer
	var stream *observer.Stream
	for _, target := range navConfig.Targets {
		obs, err := observer.FromTarget(target)
		if err != nil {
			logger.Warn("Failed to register target", slog.String("name", target.Name), slog.Any("error", err))
			continue
		}
		if s, ok := obs.(*observer.Stream); ok {
			if stream != nil {
				logger.Warn("Only one stream target is served", slog.String("name", target.Name))
				continue
			}
			stream = s
		}
		observers = append(observers, obs)
	}

	registry := plugin.NewRegistry()
	defer registry.CleanupAll()
	if navConfig.PluginsDir != "" {
		if err := registry.LoadPluginsFromDir(navConfig.PluginsDir); err != nil {
			logger.Error("Failed to load plugins", slog.Any("error", err))
		}
	}

	server, err := host.NewServer(navConfig, observers)
	if err != nil {
		logger.Error("Failed to create host", slog.Any("error", err))
		os.Exit(1)
	}

	for _, pc := range navConfig.Plugins {
		factory, err := registry.Factory(pc)
		if err != nil {
			logger.Error("Failed to load plugin", slog.String("id", pc.ID), slog.Any("error", err))
			continue
		}
		if _, err := server.Add(pc, factory); err != nil {
			logger.Error("Failed to add plugin", slog.String("id", pc.ID), slog.Any("error", err))
		}
	}

	registrars := []api.RouteRegistrar{api.NewPluginHandler(server), api.NewCatalogHandler(registry)}
	var inp input.Inputer
	switch navConfig.Mode {
	case config.HTTP_MODE:
		httpInput := input.NewHTTPInput(server)
		registrars = append(registrars, httpInput)
		inp = httpInput
	default:
		inp = input.NewFileInput(navConfig.Input, server)
	}

	var streamHandler http.Handler
	if stream != nil {
		streamHandler = stream
	}
	srv := &http.Server{
		Addr:         navConfig.Http.Addr(),
		Handler:      api.NewRouter(streamHandler, registrars...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("HTTP server starting", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()
	config.NavInfo.Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	server.StartEnabled()
	go server.RunStatistics(ctx)
	if err := inp.Start(ctx); err != nil {
		logger.Error("Failed to start input", slog.Any("error", err))
	}

	<-ctx.Done()
	logger.Info("Exiting...")

	if err := inp.Stop(); err != nil {
		logger.Error("stopping failed", slog.Any("error", err))
	}
	server.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
