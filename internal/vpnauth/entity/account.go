package entity

import "time"

// Account is the second-factor enrollment of a single VPN user.
// Secret holds the sealed TOTP key and is never exposed outside the usecase.
type Account struct {
	Username  string
	Secret    []byte
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
	EnabledAt *time.Time
}

// State reports where the account sits in the enrollment lifecycle.
func (a *Account) State() State {
	if a == nil || len(a.Secret) == 0 {
		return StateNotConfigured
	}
	if a.Enabled {
		return StateEnabled
	}
	return StatePendingVerification
}
