package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskline/taskline/internal/config"
	"github.com/taskline/taskline/internal/health"
	"github.com/taskline/taskline/internal/httpapi"
	"github.com/taskline/taskline/internal/metrics"
	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/notify"
	"github.com/taskline/taskline/internal/store"
	"github.com/taskline/taskline/internal/task"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("starting taskline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Storage
	st, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// Seed the org directory if configured
	if cfg.DirectorySeedPath != "" {
		seed, err := config.LoadSeed(cfg.DirectorySeedPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load directory seed")
		}
		for _, u := range seed.Users {
			if err := st.UpsertUser(&model.User{
				ID:    u.ID,
				Name:  u.Name,
				Email: u.Email,
				OrgID: u.OrgID,
				Role:  model.Role(u.Role),
			}); err != nil {
				logger.Fatal().Err(err).Str("user_id", u.ID).Msg("failed to seed user")
			}
		}
		logger.Info().Int("users", len(seed.Users)).Msg("directory seeded")
	}

	// Metrics & health
	m := metrics.New()
	checker := health.NewChecker(logger)
	checker.Register("db", func(ctx context.Context) health.Status {
		if err := st.Ping(); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Notification fanout
	directory := notify.NewStoreDirectory(st, cfg.DirectoryCacheSize, cfg.DirectoryCacheTTL, logger)
	fanout := notify.NewFanout(st, directory, m, logger)
	if cfg.SlackEnabled() {
		fanout.AddSink(notify.NewSlackSink(cfg.SlackBotToken, cfg.SlackChannel, logger))
		logger.Info().Str("channel", cfg.SlackChannel).Msg("slack mirroring enabled")
	}

	// Task service
	svc := task.NewService(st, st, m, logger)
	svc.AddHook(fanout)

	// Retention cron
	c := cron.New()
	if _, err := c.AddFunc(cfg.RetentionSchedule, func() {
		if err := st.RunRetention(ctx); err != nil {
			logger.Error().Err(err).Msg("retention run failed")
		}
	}); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.RetentionSchedule).Msg("invalid retention schedule")
	}
	c.Start()
	defer c.Stop()

	// HTTP API
	handlers := httpapi.NewHandlers(svc, st, logger)
	server := httpapi.NewServer(httpapi.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: httpapi.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		RateLimit: httpapi.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, checker, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
		}
	}

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
