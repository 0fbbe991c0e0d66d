package main

import (
	"context"

	"github.com/shandysiswandi/ideabox/internal/app"
)

// @title           IdeaBox API
// @version         1.0
// @description     Corporate OTP sign-in for the User and Admin collections, and idea submission with an optional attachment.
// @contact.name    IT Support
// @contact.email   support@ideabox.local
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
func main() {
	application := app.New()
	<-application.Start()

	// In-flight OTP emails and idea uploads get app.server.shutdown_timeout_seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()

	application.Stop(ctx)
}
