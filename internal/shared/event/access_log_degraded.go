package event

const AccessLogDegradedDestination string = "vpnauth.access_log.degraded"

// AccessLogDegradedMessage carries an access-log entry that could not be
// persisted, so an operator can reconcile it by hand.
type AccessLogDegradedMessage struct {
	Username          string `json:"username"`
	ClientIP          string `json:"client_ip"`
	AccessTime        int64  `json:"access_time"`
	TwoFactorVerified bool   `json:"two_factor_verified"`
	AccessGranted     bool   `json:"access_granted"`
	Action            string `json:"action"`
	Reason            string `json:"reason"`
	Error             string `json:"error"`
}
