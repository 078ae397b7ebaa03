package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/vpnguard/internal/vpnauth"
)

func (a *App) initModules() {
	if err := vpnauth.New(vpnauth.Dependency{
		Ctx:          a.ctx,
		Goroutine:    a.goroutine,
		Router:       a.router,
		Messaging:    a.messaging,
		Lockout:      a.lockout,
		Config:       a.config,
		Instrument:   a.ins,
		UID:          a.uid,
		MFAEncryptor: a.mfaEncryptor,
		Clock:        a.clock,
		Totp:         a.totp,
		Validator:    a.validator,
		DBConn:       a.dbConn,
	}); err != nil {
		slog.Error("failed to init module vpnauth", "error", err)
		os.Exit(1)
	}
}
