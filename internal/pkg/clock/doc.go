// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. TOTP windows and lockout expiry are time driven, so
// tests swap in a Manual clock and step it across 30-second boundaries.
package clock
