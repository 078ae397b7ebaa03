package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

const selectAccount = `SELECT username, secret, enabled, created_at, updated_at, enabled_at
FROM vpnauth_accounts WHERE username = $1`

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var acc entity.Account
	if err := row.Scan(
		&acc.Username,
		&acc.Secret,
		&acc.Enabled,
		&acc.CreatedAt,
		&acc.UpdatedAt,
		&acc.EnabledAt,
	); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *DB) GetAccount(ctx context.Context, username string) (acc *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		var qErr error
		acc, qErr = scanAccount(s.conn.QueryRow(ctx, selectAccount, username))
		return qErr
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return acc, nil
}

// ProvisionAccount inserts acc when the username is free and returns the
// stored row either way. created reports whether this call inserted it.
func (s *DB) ProvisionAccount(ctx context.Context, in entity.Account) (acc *entity.Account, created bool, err error) {
	ctx, span := s.startSpan(ctx, "ProvisionAccount")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		var txErr error
		acc, created, txErr = s.provisionAccount(ctx, in)
		return txErr
	})
	if err != nil {
		return nil, false, s.mapError(err)
	}

	return acc, created, nil
}

func (s *DB) provisionAccount(ctx context.Context, in entity.Account) (*entity.Account, bool, error) {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, `INSERT INTO vpnauth_accounts (username, secret, enabled, created_at, updated_at)
VALUES ($1, $2, FALSE, $3, $4)
ON CONFLICT (username) DO NOTHING`, in.Username, in.Secret, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return nil, false, err
	}

	acc, err := scanAccount(tx.QueryRow(ctx, selectAccount, in.Username))
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	return acc, tag.RowsAffected() == 1, nil
}

// MarkAccountEnabled reports whether the call changed the account.
func (s *DB) MarkAccountEnabled(ctx context.Context, username string, at time.Time) (changed bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkAccountEnabled")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		tag, err := s.conn.Exec(ctx, `UPDATE vpnauth_accounts
SET enabled = TRUE, enabled_at = $2, updated_at = $2
WHERE username = $1 AND NOT enabled`, username, at)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			changed = true
			return nil
		}

		var exists bool
		if err := s.conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM vpnauth_accounts WHERE username = $1)`, username,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return goerror.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return false, s.mapError(err)
	}

	return changed, nil
}
