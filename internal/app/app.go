package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/hash"
	"github.com/shandysiswandi/otpify/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
	"github.com/shandysiswandi/otpify/internal/pkg/mail"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/pkg/storage"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	password  hash.Hash
	otpHash   hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT
	sealer    sealer.Sealer

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
