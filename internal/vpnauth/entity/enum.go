package entity

// State is the enrollment state of an account.
type State int16

const (
	// StateNotConfigured mean no secret has been provisioned yet.
	StateNotConfigured State = 0

	// StatePendingVerification mean a secret exists but no code was confirmed.
	StatePendingVerification State = 1

	// StateEnabled mean the user confirmed a code and 2FA is enforced.
	StateEnabled State = 2
)

func (s State) String() string {
	switch s {
	case StatePendingVerification:
		return "PendingVerification"
	case StateEnabled:
		return "Enabled"
	default:
		return "NotConfigured"
	}
}

// Action is the operation that produced an access-log entry.
type Action string

const (
	ActionEnable Action = "enable"
	ActionVerify Action = "verify"
)

// Reason explains the outcome recorded in an access-log entry.
type Reason string

const (
	ReasonGranted         Reason = "granted"
	ReasonInvalidCode     Reason = "invalid_code"
	ReasonNotConfigured   Reason = "not_configured"
	ReasonNotEnabled      Reason = "not_enabled"
	ReasonTooManyAttempts Reason = "too_many_attempts"
	ReasonInvalidInput    Reason = "invalid_input"
	ReasonUnavailable     Reason = "unavailable"
	ReasonInternalError   Reason = "internal_error"
)
