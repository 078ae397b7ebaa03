package inbound

import (
	"context"

	"github.com/shandysiswandi/vpnguard/internal/pkg/router"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/usecase"
)

type uc interface {
	Setup(ctx context.Context, in usecase.SetupInput) (*usecase.SetupOutput, error)
	Enable(ctx context.Context, in usecase.EnableInput) error
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
	Recent(ctx context.Context, in usecase.RecentInput) (*usecase.RecentOutput, error)
	RejectMalformed(ctx context.Context, in usecase.MalformedInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Enrollment
	r.POST("/setup-2fa/", end.Setup)
	r.POST("/enable-2fa/", end.Enable)

	// VPN connection hook
	r.POST("/verify-2fa/", end.Verify)
	r.GET("/check-2fa-status/", end.Status)

	// Audit
	r.GET("/access-logs/", end.AccessLogs)
}
