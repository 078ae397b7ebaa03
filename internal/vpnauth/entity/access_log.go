package entity

import "time"

// AccessLog is one immutable audit record of an enable or verify attempt.
type AccessLog struct {
	ID                int64
	Username          string
	ClientIP          string
	AccessTime        time.Time
	TwoFactorVerified bool
	AccessGranted     bool
	Action            Action
	Reason            Reason
}
