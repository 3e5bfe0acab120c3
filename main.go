package main

import (
	"context"
	"log"
	"time"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()
	configureExternalHTTPClient(cfg)

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	var api *slack.Client
	if cfg.SlackBotToken != "" {
		api = slack.New(cfg.SlackBotToken)
	}

	backend := NewSunoBackend(cfg)
	poller := NewPoller(backend,
		time.Duration(cfg.PollIntervalSeconds)*time.Second, cfg.PollMaxIterations)

	sink := multiSink{logSink{}, &dbSink{db: db}}
	if n := NewSlackNotifier(api, cfg.SlackChannelID); n != nil {
		sink = append(sink, n)
	}

	classify := func(ctx context.Context, sample *Sample) (ContextSummary, error) {
		return ClassifyScreen(ctx, cfg, sample)
	}
	generate := func(current ContextSummary) {
		runGeneration(cfg, db, poller, sink, current)
	}

	detector := NewDetector(DetectorConfig{
		Interval:     time.Duration(cfg.TickIntervalMS) * time.Millisecond,
		DiffRatio:    cfg.DiffThreshold,
		LargeRatio:   cfg.LargeDiffThreshold,
		ConfirmCount: cfg.ConfirmCount,
		Cooldown:     time.Duration(cfg.CooldownSeconds) * time.Second,
	}, NewSpoolCapturer(cfg.ScreenshotDir), classify, generate, sink)

	StartMaintenanceScheduler(cfg, db, api)

	log.Println("Starting screenbeat...")
	detector.Run(context.Background())
}
