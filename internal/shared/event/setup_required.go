package event

const SetupRequiredDestination string = "vpnauth.setup_required"

// SetupRequiredMessage announces a VPN user that connected without an enabled
// second factor.
type SetupRequiredMessage struct {
	Username   string `json:"username"`
	Has2FA     bool   `json:"has_2fa"`
	IsEnabled  bool   `json:"is_enabled"`
	ObservedAt int64  `json:"observed_at"`
}
