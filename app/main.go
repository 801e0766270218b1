package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starchives/starchives/app/api"
	"github.com/starchives/starchives/app/cfg"
	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
	"github.com/starchives/starchives/app/logbuf"
	"github.com/starchives/starchives/app/search"
	"github.com/starchives/starchives/app/shared"
	"github.com/starchives/starchives/app/tasks"
	"github.com/starchives/starchives/app/youtube"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if errors.Is(err, cfg.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logs := logbuf.New(logbuf.DefaultCapacity)
	setupLogger(appCfg.Debug, logs)

	slog.Info("Starting Starchives", "version", appCfg.Version, "port", appCfg.Port, "timezone", appCfg.Timezone)

	if err := run(appCfg, logs); err != nil {
		slog.Error("Starchives stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Starchives shutdown complete")
}

func setupLogger(debug bool, logs *logbuf.Buffer) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, logs), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func run(appCfg *cfg.Cfg, logs *logbuf.Buffer) error {
	db, err := database.Open(appCfg.ConnectionString)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	videoRepo := database.NewVideoRepository(db)
	captionRepo := database.NewCaptionRepository(db)
	channelRepo := database.NewChannelRepository(db)

	configCache := channel.NewConfigCache(appCfg.ChannelsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load channel configurations: %w", err)
	}
	if appCfg.ChannelID != "" {
		if _, err := configCache.AddImplicit(appCfg.ChannelID); err != nil {
			return fmt.Errorf("failed to configure channel %s: %w", appCfg.ChannelID, err)
		}
	}
	slog.Info("Channel configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.ChannelsDir)

	var scheduler tasks.TaskSchedulerInterface
	if appCfg.IngestionEnabled() {
		s, err := newScheduler(appCfg, configCache, channelRepo, videoRepo, captionRepo)
		if err != nil {
			return err
		}
		s.Start()
		defer s.Stop()
		scheduler = s
	} else {
		slog.Warn("YouTube API key not set, ingestion disabled; serving the existing archive only")
	}

	planner := search.NewPlanner(videoRepo)
	title := shared.NewTitle(appCfg.SiteTitle)

	handler := api.NewHandler(videoRepo, captionRepo, channelRepo, planner, configCache,
		scheduler, logs, title, appCfg.Version)

	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     api.NewServer(handler),
		ReadTimeout: 30 * time.Second,
		// no WriteTimeout: /api/title/events is a long-lived stream
		IdleTimeout: 120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErr:
	}

	slog.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return runErr
}

func newScheduler(appCfg *cfg.Cfg, configCache *channel.ConfigCache, channelRepo database.ChannelRepository,
	videoRepo database.VideoRepository, captionRepo database.CaptionRepository) (*tasks.Scheduler, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	client, err := youtube.NewClient(context.Background(), appCfg.YouTubeAPIKey, appCfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	feeds := youtube.NewFeedReader(httpClient, youtube.DefaultFeedURL, appCfg.UserAgent)
	transcripts := youtube.NewTranscriptFetcher(httpClient)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval", appCfg.SchedulerInterval, "caption_concurrency", appCfg.CaptionConcurrency)

	return tasks.NewScheduler(configCache, channelRepo, videoRepo, captionRepo,
		client, feeds, transcripts, channel.NewFilterer(), tasks.Options{
			Interval:           time.Duration(appCfg.SchedulerInterval) * time.Second,
			WorkerCount:        appCfg.WorkerCount,
			CaptionConcurrency: appCfg.CaptionConcurrency,
		}), nil
}
