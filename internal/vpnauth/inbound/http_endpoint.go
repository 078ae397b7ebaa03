package inbound

import (
	"encoding/base64"
	"strings"

	"github.com/shandysiswandi/vpnguard/internal/pkg/router"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/usecase"
)

// HTTPEndpoint exposes the enrollment, verification and audit handlers.
type HTTPEndpoint struct {
	uc uc
}

// Setup provisions (or returns) the TOTP secret of a user.
// @Summary Set up 2FA
// @Description Returns the shared secret and a base64 PNG QR code while enrollment is pending. Repeated calls return the same secret; an enabled account only reports is_enabled.
// @Tags VPN 2FA
// @Accept json
// @Produce json
// @Param request body SetupRequest true "Setup payload"
// @Success 200 {object} SetupResponse
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Store unavailable"
// @Router /setup-2fa/ [post]
func (h *HTTPEndpoint) Setup(r *router.Request) (any, error) {
	var req SetupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Setup(r.Context(), usecase.SetupInput{
		Username: strings.TrimSpace(req.Username),
	})
	if err != nil {
		return nil, err
	}

	return SetupResponse{
		Success:   true,
		QRCode:    base64.StdEncoding.EncodeToString(resp.QRCode),
		SecretKey: resp.Secret,
		IsEnabled: resp.IsEnabled,
	}, nil
}

// Enable confirms the enrollment with a first valid code.
// @Summary Enable 2FA
// @Tags VPN 2FA
// @Accept json
// @Produce json
// @Param request body EnableRequest true "Enable payload"
// @Success 200 {object} EnableResponse
// @Failure 401 {object} router.errorResponse "Invalid verification code"
// @Failure 404 {object} router.errorResponse "2FA not configured"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /enable-2fa/ [post]
func (h *HTTPEndpoint) Enable(r *router.Request) (any, error) {
	var req EnableRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, h.uc.RejectMalformed(r.Context(), usecase.MalformedInput{
			Action:   entity.ActionEnable,
			ClientIP: r.ClientIP(),
			Cause:    err,
		})
	}

	if err := h.uc.Enable(r.Context(), usecase.EnableInput{
		Username: strings.TrimSpace(req.Username),
		Token:    strings.TrimSpace(req.Token),
		ClientIP: clientIP(r, req.ClientIP),
	}); err != nil {
		return nil, err
	}

	return EnableResponse{Success: true, Message: "2FA enabled successfully"}, nil
}

// Verify checks a code for a VPN connection.
// @Summary Verify 2FA
// @Tags VPN 2FA
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} VerifyResponse
// @Failure 401 {object} VerifyResponse "Invalid verification code"
// @Failure 403 {object} VerifyResponse "2FA not enabled"
// @Failure 404 {object} VerifyResponse "2FA not configured"
// @Failure 429 {object} VerifyResponse "Too many attempts"
// @Router /verify-2fa/ [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	denied := VerifyResponse{AccessGranted: false}

	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return denied, h.uc.RejectMalformed(r.Context(), usecase.MalformedInput{
			Action:   entity.ActionVerify,
			ClientIP: r.ClientIP(),
			Cause:    err,
		})
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Username: strings.TrimSpace(req.Username),
		Token:    strings.TrimSpace(req.Token),
		ClientIP: clientIP(r, req.ClientIP),
	})
	if err != nil {
		return denied, err
	}

	return VerifyResponse{
		Success:       true,
		AccessGranted: resp.AccessGranted,
		Message:       "2FA verification successful",
	}, nil
}

// Status reports whether a user still has to set up 2FA.
// @Summary Check 2FA status
// @Tags VPN 2FA
// @Produce json
// @Param username query string true "VPN username"
// @Success 200 {object} StatusResponse
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /check-2fa-status/ [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{
		Username: r.GetQuery("username"),
	})
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		Success:       true,
		Username:      resp.Username,
		Has2FA:        resp.Has2FA,
		IsEnabled:     resp.IsEnabled,
		RequiresSetup: resp.RequiresSetup,
	}, nil
}

// AccessLogs lists the most recent access-log entries.
// @Summary Recent access logs
// @Tags VPN 2FA
// @Produce json
// @Param limit query int false "Page size, at most 50"
// @Success 200 {object} AccessLogsResponse
// @Router /access-logs/ [get]
func (h *HTTPEndpoint) AccessLogs(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt("limit")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Recent(r.Context(), usecase.RecentInput{Limit: limit})
	if err != nil {
		return nil, err
	}

	return AccessLogsResponse{
		Success: true,
		Logs:    toAccessLogResponses(resp.Logs),
	}, nil
}

// clientIP prefers the address sent by the caller and falls back to the
// resolved remote address.
func clientIP(r *router.Request, fromBody string) string {
	if ip := strings.TrimSpace(fromBody); ip != "" {
		return ip
	}
	return r.ClientIP()
}
