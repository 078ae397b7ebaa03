// Package otp provides helpers for generating and validating time-based
// one-time passwords (TOTP, RFC 6238).
//
// Secrets are base32 strings suitable for authenticator apps. Validation
// accepts the code of the current time step and of the step immediately
// before it, never a future step.
package otp
