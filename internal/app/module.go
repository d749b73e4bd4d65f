package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpify/internal/account"
	"github.com/shandysiswandi/otpify/internal/dashboard"
	"github.com/shandysiswandi/otpify/internal/notification"
	"github.com/shandysiswandi/otpify/internal/otp"
)

func (a *App) initModules() {
	mailer, err := notification.New(notification.Dependency{
		Ctx:        a.ctx,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		Clock:      a.clock,
		Goroutine:  a.goroutine,
		Validator:  a.validator,
		Mail:       a.mail,
		Sealer:     a.sealer,
	})
	if err != nil {
		slog.Error("failed to init module notification", "error", err)
		os.Exit(1)
	}

	if err := account.New(account.Dependency{
		DBConn:      a.dbConn,
		CacheConn:   a.cacheConn,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Idempotency: a.idemp,
		Messaging:   a.messaging,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		HMAC:        a.hmac,
		Passwords:   a.password,
		Clock:       a.clock,
		Validator:   a.validator,
		JWT:         a.jwt,
		Sealer:      a.sealer,
		Mailer:      mailer,
	}); err != nil {
		slog.Error("failed to init module account", "error", err)
		os.Exit(1)
	}

	if err := otp.New(otp.Dependency{
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Hash:       a.otpHash,
		Sealer:     a.sealer,
		Clock:      a.clock,
		Validator:  a.validator,
		Mailer:     mailer,
	}); err != nil {
		slog.Error("failed to init module otp", "error", err)
		os.Exit(1)
	}

	if err := dashboard.New(dashboard.Dependency{
		DBConn:     a.dbConn,
		Router:     a.router,
		Storage:    a.storage,
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
	}); err != nil {
		slog.Error("failed to init module dashboard", "error", err)
		os.Exit(1)
	}
}
