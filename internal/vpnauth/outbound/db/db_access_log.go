package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

func (s *DB) CreateAccessLog(ctx context.Context, log entity.AccessLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccessLog")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.conn.Exec(ctx, `INSERT INTO vpnauth_access_logs
(id, username, client_ip, access_time, two_factor_verified, access_granted, action, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			log.ID,
			log.Username,
			log.ClientIP,
			log.AccessTime,
			log.TwoFactorVerified,
			log.AccessGranted,
			string(log.Action),
			string(log.Reason),
		)
		return err
	})

	return s.mapError(err)
}

func (s *DB) ListRecentAccessLogs(ctx context.Context, limit int) (logs []entity.AccessLog, err error) {
	ctx, span := s.startSpan(ctx, "ListRecentAccessLogs")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.conn.Query(ctx, `SELECT id, username, client_ip, access_time, two_factor_verified, access_granted, action, reason
FROM vpnauth_access_logs
ORDER BY access_time DESC, id DESC
LIMIT $1`, limit)
		if err != nil {
			return err
		}

		logs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.AccessLog, error) {
			var (
				l              entity.AccessLog
				action, reason string
			)
			err := row.Scan(
				&l.ID,
				&l.Username,
				&l.ClientIP,
				&l.AccessTime,
				&l.TwoFactorVerified,
				&l.AccessGranted,
				&action,
				&reason,
			)
			l.AccessTime = l.AccessTime.UTC()
			l.Action = entity.Action(action)
			l.Reason = entity.Reason(reason)
			return l, err
		})
		return err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return logs, nil
}

func (s *DB) DeleteAccessLogsBefore(ctx context.Context, cutoff time.Time) (deleted int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteAccessLogsBefore")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		tag, err := s.conn.Exec(ctx, `DELETE FROM vpnauth_access_logs WHERE access_time < $1`, cutoff)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, s.mapError(err)
	}

	return deleted, nil
}
