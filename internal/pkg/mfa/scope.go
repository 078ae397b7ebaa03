package mfa

// Purpose identifies what a ciphertext protects.
type Purpose string

// PurposeTOTPSecret scopes encryption to TOTP shared secrets.
const PurposeTOTPSecret Purpose = "totp_secret"

// Scope binds a ciphertext to its owner. It is used as AES-GCM additional
// authenticated data, so a ciphertext moved to another owner fails to open.
type Scope struct {
	Username string
	Purpose  Purpose
}

// SecretScope returns the scope of the TOTP secret owned by username.
func SecretScope(username string) Scope {
	return Scope{Username: username, Purpose: PurposeTOTPSecret}
}
