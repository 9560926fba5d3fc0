// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command inkpress runs the blog server: public JSON API, admin API,
// session auth and the background maintenance scheduler.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"inkpress/internal/config"
	"inkpress/internal/geoip"
	"inkpress/internal/handler/api"
	"inkpress/internal/logging"
	"inkpress/internal/middleware"
	"inkpress/internal/ratelimit"
	"inkpress/internal/scheduler"
	"inkpress/internal/service"
	"inkpress/internal/session"
	"inkpress/internal/store"
	"inkpress/internal/transfer"
	"inkpress/internal/version"
)

func main() {
	importDir := flag.String("import", "", "import markdown posts from a directory and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(*importDir); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(importDir string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(baseHandler))

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	// Once the database is up, tee WARN and above into the audit log.
	logger := slog.New(logging.NewEventLogHandler(baseHandler, db))
	slog.SetDefault(logger)

	if cfg.DoSeed {
		if err := store.Seed(context.Background(), db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	if importDir != "" {
		return runImport(db, logger, importDir)
	}

	geo, err := geoip.New(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn("GeoIP disabled", "error", err)
	}
	defer func() { _ = geo.Close() }()

	loginLimiter, commentLimiter, sweepers, err := buildLimiters(cfg)
	if err != nil {
		return err
	}

	sessions := session.New(db, cfg.IsDevelopment())

	events := service.NewEventService(db)
	handler := api.NewHandler(
		service.NewPostService(db, events),
		service.NewCommentService(db, commentLimiter, events),
		service.NewTagService(db),
		service.NewUserService(db, events),
		events,
		service.NewStatsService(db),
		sessions,
		geo,
	)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret)[:32], cfg.IsDevelopment())
	root := chi.NewRouter()
	root.Mount("/api", handler.Routes(api.RouterConfig{
		DB:           db,
		LoginLimiter: loginLimiter,
		GlobalRPS:    50,
		GlobalBurst:  100,
		Security:     middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment()),
		CSRF:         &csrfConfig,
	}))
	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	sched := scheduler.New(logger, events, cfg.EventRetentionDays, sweepers, geo)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.String())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildLimiters picks the rate limit backend: Redis when configured so
// multiple instances share windows, in-memory otherwise.
func buildLimiters(cfg *config.Config) (login, comment ratelimit.Limiter, sweepers []*ratelimit.MemoryLimiter, err error) {
	if cfg.UseRedisRateLimit() {
		client, err := ratelimit.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return ratelimit.NewRedis(client, ratelimit.Login, cfg.RateLimitPrefix+"login:"),
			ratelimit.NewRedis(client, ratelimit.Comment, cfg.RateLimitPrefix+"comment:"),
			nil, nil
	}

	loginMem := ratelimit.NewMemory(ratelimit.Login)
	commentMem := ratelimit.NewMemory(ratelimit.Comment)
	return loginMem, commentMem, []*ratelimit.MemoryLimiter{loginMem, commentMem}, nil
}

// runImport loads markdown posts from dir, attributing files without a
// resolvable author to the highest-ranked existing account.
func runImport(db *sql.DB, logger *slog.Logger, dir string) error {
	ctx := context.Background()

	users, err := store.New(db).ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		return errors.New("no users exist; run with INKPRESS_DO_SEED=true first")
	}
	author := users[0]
	for _, u := range users {
		if u.Role.Rank() > author.Role.Rank() {
			author = u
		}
	}

	importer := transfer.NewImporter(db, logger, author.ID)
	result, err := importer.ImportDir(ctx, os.DirFS(dir), ".")
	if err != nil {
		return err
	}
	for _, fileErr := range result.Errors {
		logger.Error("import failed", "path", fileErr.Path, "error", fileErr.Message)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d file(s) failed to import",
			len(result.Errors), result.Imported+result.Skipped+len(result.Errors))
	}
	return nil
}
