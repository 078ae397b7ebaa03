package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

type MalformedInput struct {
	Action   entity.Action
	ClientIP string
	// Cause is the decode error returned to the caller unchanged.
	Cause error
}

// RejectMalformed records an enable or verify request whose body could not be
// decoded. No username is known, so the entry carries only the client IP.
func (s *Usecase) RejectMalformed(ctx context.Context, in MalformedInput) error {
	ctx, span := s.startSpan(ctx, "RejectMalformed")
	defer span.End()

	slog.WarnContext(ctx, "malformed request body", "action", in.Action, "client_ip", in.ClientIP)

	s.record(ctx, entity.AccessLog{
		ClientIP: truncate(in.ClientIP, maxClientIP),
		Action:   in.Action,
		Reason:   entity.ReasonInvalidInput,
	})

	if in.Cause == nil {
		return goerror.NewInvalidFormat()
	}
	return in.Cause
}
