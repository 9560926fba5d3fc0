// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: audit event
// retention, rate limiter window sweeps and GeoIP database reloads.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"inkpress/internal/geoip"
	"inkpress/internal/ratelimit"
	"inkpress/internal/service"
)

// Scheduler owns the cron runner and its job dependencies.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	events        *service.EventService
	retentionDays int
	sweepers      []*ratelimit.MemoryLimiter
	geo           *geoip.Resolver
}

// New creates a new Scheduler. Sweepers and geo may be empty or nil
// when the corresponding backend is not in use.
func New(logger *slog.Logger, events *service.EventService, retentionDays int,
	sweepers []*ratelimit.MemoryLimiter, geo *geoip.Resolver) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		logger:        logger,
		events:        events,
		retentionDays: retentionDays,
		sweepers:      sweepers,
		geo:           geo,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Event retention once a day, shortly after midnight.
	if _, err := s.cron.AddFunc("10 0 * * *", s.pruneEvents); err != nil {
		return err
	}

	// Expired fixed windows hold no budget; sweeping just caps memory.
	if len(s.sweepers) > 0 {
		if _, err := s.cron.AddFunc("*/10 * * * *", s.sweepLimiters); err != nil {
			return err
		}
	}

	if s.geo != nil && s.geo.Enabled() {
		if _, err := s.cron.AddFunc("0 */6 * * *", s.reloadGeoIP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) pruneEvents() {
	deleted, err := s.events.Prune(context.Background(), s.retentionDays)
	if err != nil {
		s.logger.Error("failed to prune audit events", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("pruned audit events",
			"deleted", deleted, "retention_days", s.retentionDays)
	}
}

func (s *Scheduler) sweepLimiters() {
	total := 0
	for _, limiter := range s.sweepers {
		total += limiter.Sweep()
	}
	if total > 0 {
		s.logger.Debug("swept expired rate limit windows", "removed", total)
	}
}

func (s *Scheduler) reloadGeoIP() {
	if err := s.geo.Reload(); err != nil {
		s.logger.Warn("failed to reload GeoIP database", "error", err)
	}
}
