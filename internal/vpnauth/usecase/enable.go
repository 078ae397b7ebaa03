package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

type EnableInput struct {
	Username string `validate:"required,max=150,username"`
	Token    string `validate:"required,numeric,len=6"`
	ClientIP string `validate:"omitempty,max=64"`
}

// Enable confirms a pending enrollment with a valid code. Calling it again on
// an enabled account with a valid code succeeds without changes.
func (s *Usecase) Enable(ctx context.Context, in EnableInput) error {
	ctx, span := s.startSpan(ctx, "Enable")
	defer span.End()

	acc, entry, err := s.authenticate(ctx, attempt{
		action:   entity.ActionEnable,
		username: in.Username,
		token:    in.Token,
		clientIP: in.ClientIP,
	}, in)
	if err != nil {
		return err
	}

	if !acc.Enabled {
		if _, err := s.repoDB.MarkAccountEnabled(ctx, acc.Username, s.clock.Now().UTC()); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark account enabled", "username", acc.Username, "error", err)
			entry.Reason = entity.ReasonUnavailable
			s.record(ctx, entry)
			return goerror.NewUnavailable(err)
		}
		slog.InfoContext(ctx, "2fa enabled", "username", acc.Username)
	}

	entry.AccessGranted = true
	entry.Reason = entity.ReasonGranted
	s.record(ctx, entry)

	return nil
}
