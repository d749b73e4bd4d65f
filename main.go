package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpify/internal/app"
)

// @title           Otpify API
// @version         1.0
// @description     Otpify issues and verifies one-time email codes for API key holders.
// @termsOfService  https://otpify.dev/terms
// @contact.name    Contact Support
// @contact.url     https://otpify.dev/contact
// @contact.email   support@otpify.dev
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @server          https://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
// @securityDefinitions.apikey  APIKeyAuth
// @in header
// @name X-API-KEY
// @description API key issued at registration.
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
