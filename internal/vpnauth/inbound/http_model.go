package inbound

import (
	"time"

	"github.com/samber/lo"

	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

type SetupRequest struct {
	Username string `json:"username"`
}

type SetupResponse struct {
	Success   bool   `json:"success"`
	QRCode    string `json:"qr_code,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	IsEnabled bool   `json:"is_enabled"`
}

type EnableRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	ClientIP string `json:"client_ip"`
}

type EnableResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	ClientIP string `json:"client_ip"`
}

type VerifyResponse struct {
	Success       bool   `json:"success"`
	AccessGranted bool   `json:"access_granted"`
	Message       string `json:"message,omitempty"`
}

type StatusResponse struct {
	Success       bool   `json:"success"`
	Username      string `json:"username"`
	Has2FA        bool   `json:"has_2fa"`
	IsEnabled     bool   `json:"is_enabled"`
	RequiresSetup bool   `json:"requires_setup"`
}

type AccessLogResponse struct {
	Username          string `json:"username"`
	ClientIP          string `json:"client_ip"`
	AccessTime        string `json:"access_time"`
	TwoFactorVerified bool   `json:"two_factor_verified"`
	AccessGranted     bool   `json:"access_granted"`
}

type AccessLogsResponse struct {
	Success bool                `json:"success"`
	Logs    []AccessLogResponse `json:"logs"`
}

func toAccessLogResponses(logs []entity.AccessLog) []AccessLogResponse {
	return lo.Map(logs, func(l entity.AccessLog, _ int) AccessLogResponse {
		return AccessLogResponse{
			Username:          l.Username,
			ClientIP:          l.ClientIP,
			AccessTime:        l.AccessTime.UTC().Format(time.RFC3339),
			TwoFactorVerified: l.TwoFactorVerified,
			AccessGranted:     l.AccessGranted,
		}
	})
}
