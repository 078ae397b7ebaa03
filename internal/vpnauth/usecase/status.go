package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

type StatusInput struct {
	Username string `validate:"required,max=150,username"`
}

type StatusOutput struct {
	Username      string
	Has2FA        bool
	IsEnabled     bool
	RequiresSetup bool
}

// Status reports the enrollment state for the VPN connection hook. Users
// without an enabled factor trigger a best-effort setup notice.
func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.repoDB.GetAccount(ctx, in.Username)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account", "username", in.Username, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	state := acc.State()
	out := &StatusOutput{
		Username:      in.Username,
		Has2FA:        state != entity.StateNotConfigured,
		IsEnabled:     state == entity.StateEnabled,
		RequiresSetup: state != entity.StateEnabled,
	}

	if out.RequiresSetup {
		s.notifySetupRequired(ctx, out)
	}

	return out, nil
}

func (s *Usecase) notifySetupRequired(ctx context.Context, out *StatusOutput) {
	ctx = context.WithoutCancel(ctx)
	msg := SetupRequiredEvent{
		Username:   out.Username,
		Has2FA:     out.Has2FA,
		IsEnabled:  out.IsEnabled,
		ObservedAt: s.clock.Now().UTC(),
	}

	publish := func(ctx context.Context) error {
		if err := s.repoMessaging.PublishSetupRequired(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to publish setup required event", "username", msg.Username, "error", err)
		}
		return nil
	}

	if !s.goroutine.Go(ctx, publish) {
		_ = publish(ctx)
	}
}
