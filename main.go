package main

import (
	"context"

	"github.com/shandysiswandi/vpnguard/internal/app"
)

// @title           VPN Guard API
// @version         1.0
// @description     TOTP two-factor enrollment, verification and access auditing for VPN users.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
