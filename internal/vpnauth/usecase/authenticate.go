package usecase

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

const (
	maxUsername = 150
	maxClientIP = 64
)

type attempt struct {
	action   entity.Action
	username string
	token    string
	clientIP string
}

// authenticate runs the checks shared by Enable and Verify. Every failure is
// recorded before returning; on success the pending entry is handed back so
// the caller can finish and record it.
func (s *Usecase) authenticate(ctx context.Context, at attempt, in any) (*entity.Account, entity.AccessLog, error) {
	entry := entity.AccessLog{
		Username: truncate(at.username, maxUsername),
		ClientIP: truncate(at.clientIP, maxClientIP),
		Action:   at.action,
	}

	fail := func(reason entity.Reason, err error) (*entity.Account, entity.AccessLog, error) {
		entry.Reason = reason
		s.record(ctx, entry)
		return nil, entry, err
	}

	if err := s.validator.Validate(in); err != nil {
		return fail(entity.ReasonInvalidInput, goerror.NewInvalidInput(err))
	}

	key := lockoutKey(at.username)
	allowed, err := s.lockout.Reserve(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reserve lockout slot, continuing", "username", at.username, "error", err)
		allowed = true
	}
	if !allowed {
		slog.WarnContext(ctx, "too many failed attempts", "username", at.username, "action", at.action)
		return fail(entity.ReasonTooManyAttempts, goerror.NewBusiness("Too many failed attempts, try again later", goerror.CodeTooManyRequest))
	}

	// Only a rejected code keeps the reserved slot.
	reserved := err == nil
	release := func(reason entity.Reason, err error) (*entity.Account, entity.AccessLog, error) {
		if reserved {
			if rerr := s.lockout.Release(ctx, key); rerr != nil {
				slog.ErrorContext(ctx, "failed to release lockout slot", "username", at.username, "error", rerr)
			}
		}
		return fail(reason, err)
	}

	acc, err := s.repoDB.GetAccount(ctx, at.username)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account", "username", at.username, "error", err)
		return release(entity.ReasonUnavailable, goerror.NewUnavailable(err))
	}

	switch acc.State() {
	case entity.StateNotConfigured:
		slog.WarnContext(ctx, "2fa is not configured", "username", at.username, "action", at.action)
		return release(entity.ReasonNotConfigured, goerror.NewBusiness("2FA is not configured for this user", goerror.CodeNotConfigured))

	case entity.StatePendingVerification:
		if at.action == entity.ActionVerify {
			slog.WarnContext(ctx, "2fa is not enabled", "username", at.username)
			return release(entity.ReasonNotEnabled, goerror.NewBusiness("2FA is not enabled for this user", goerror.CodeForbidden))
		}
	}

	secret, err := s.openSecret(ctx, acc)
	if err != nil {
		return release(entity.ReasonInternalError, err)
	}

	if !s.totp.Validate(at.token, secret, s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "username", at.username, "action", at.action)
		return fail(entity.ReasonInvalidCode, goerror.NewBusiness("Invalid verification code", goerror.CodeVerificationFailed))
	}

	if err := s.lockout.Reset(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to reset failed attempts", "username", at.username, "error", err)
	}

	entry.TwoFactorVerified = true
	return acc, entry, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
