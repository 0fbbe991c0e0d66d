package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/ideabox/internal/idea"
	"github.com/shandysiswandi/ideabox/internal/identity"
	"github.com/shandysiswandi/ideabox/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Ctx:        a.ctx,
			MongoDB:    a.otpDB,
			DBConn:     a.dbConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.idea.enabled") {
		if err := idea.New(idea.Dependency{
			Ctx:         a.ctx,
			FormDB:      a.formDB,
			Storage:     a.storage,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Router:      a.router,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
			Config:      a.config,
			Instrument:  a.ins,
		}); err != nil {
			slog.Error("failed to init module idea", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
