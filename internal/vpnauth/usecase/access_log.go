package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

// MaxRecentAccessLogs bounds every access-log listing.
const MaxRecentAccessLogs = 50

type RecentInput struct {
	Limit int
}

type RecentOutput struct {
	Logs []entity.AccessLog
}

// Recent returns the newest access-log entries first. Non-positive or
// oversized limits fall back to the configured page size.
func (s *Usecase) Recent(ctx context.Context, in RecentInput) (*RecentOutput, error) {
	ctx, span := s.startSpan(ctx, "Recent")
	defer span.End()

	logs, err := s.repoDB.ListRecentAccessLogs(ctx, s.recentLimit(in.Limit))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list recent access logs", "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return &RecentOutput{Logs: logs}, nil
}

func (s *Usecase) recentLimit(requested int) int {
	limit := s.cfg.GetInt(keyRecentLimit)
	if limit <= 0 || limit > MaxRecentAccessLogs {
		limit = defaultRecentLimit
	}

	if requested > 0 && requested < limit {
		return requested
	}
	return limit
}

// PurgeAccessLogs removes entries older than the retention window. A zero
// window keeps everything.
func (s *Usecase) PurgeAccessLogs(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "PurgeAccessLogs")
	defer span.End()

	retention := s.cfg.GetDay(keyRetentionDays)
	if retention <= 0 {
		return 0, nil
	}

	cutoff := s.clock.Now().UTC().Add(-retention)
	deleted, err := s.repoDB.DeleteAccessLogsBefore(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired access logs", "cutoff", cutoff, "error", err)
		return 0, goerror.NewUnavailable(err)
	}

	if deleted > 0 {
		slog.InfoContext(ctx, "expired access logs deleted", "count", deleted, "cutoff", cutoff)
	}

	return deleted, nil
}

// StartRetention schedules PurgeAccessLogs on the goroutine manager until ctx
// is done. It reports whether the loop was started.
func (s *Usecase) StartRetention(ctx context.Context) bool {
	if s.cfg.GetDay(keyRetentionDays) <= 0 {
		slog.InfoContext(ctx, "access log retention disabled")
		return false
	}

	return s.goroutine.Tick(ctx, "access_log_retention", s.cfg.GetMinute(keyRetentionInterval), func(ctx context.Context) error {
		_, err := s.PurgeAccessLogs(ctx)
		return err
	})
}

// record appends one audit entry. A failed write is reported and never
// changes the outcome returned to the caller.
func (s *Usecase) record(ctx context.Context, entry entity.AccessLog) {
	ctx = context.WithoutCancel(ctx)

	entry.ID = s.uid.Generate()
	entry.AccessTime = s.clock.Now().UTC()

	s.countAttempt(ctx, entry.Action, entry.Reason)

	err := s.repoDB.CreateAccessLog(ctx, entry)
	if err == nil {
		return
	}

	slog.ErrorContext(ctx, "access log degraded",
		"username", entry.Username,
		"client_ip", entry.ClientIP,
		"action", entry.Action,
		"reason", entry.Reason,
		"access_granted", entry.AccessGranted,
		"error", err,
	)
	s.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(entry.Action))))

	msg := AccessLogDegradedEvent{Entry: entry, Err: err}
	publish := func(ctx context.Context) error {
		if err := s.repoMessaging.PublishAccessLogDegraded(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to publish access log degraded event", "username", entry.Username, "error", err)
		}
		return nil
	}

	if !s.goroutine.Go(ctx, publish) {
		_ = publish(ctx)
	}
}
