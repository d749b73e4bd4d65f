package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rs/cors"
	"github.com/shandysiswandi/otpify/internal/pkg/clock"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpify/internal/pkg/hash"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
	"github.com/shandysiswandi/otpify/internal/pkg/sealer"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
	"github.com/shandysiswandi/otpify/internal/pkg/validator"
)

const defaultConfigPath = "./config/config.yaml"

var errUnknownHashAlgorithm = errors.New("app: unknown hash algorithm")

func (a *App) initConfig() {
	path := defaultConfigPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // best effort
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))

	password, err := a.passwordHash()
	if err != nil {
		slog.Error("failed to init password hash", "error", err)
		os.Exit(1)
	}
	a.password = password

	otpHash, err := a.otpCodeHash()
	if err != nil {
		slog.Error("failed to init otp code hash", "error", err)
		os.Exit(1)
	}
	a.otpHash = otpHash

	v, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validator", "error", err)
		os.Exit(1)
	}
	a.validator = v

	seal, err := sealer.NewAESGCM(a.config.GetBinary("messaging.seal_key"))
	if err != nil {
		slog.Error("failed to init sealer, messaging.seal_key must be 32 base64 encoded bytes", "error", err)
		os.Exit(1)
	}
	a.sealer = seal

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init snowflake id generator", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

// passwordHash picks the account password scheme. Switching schemes only
// affects new hashes; existing users keep verifying against the old one
// until they reset.
func (a *App) passwordHash() (hash.Hash, error) {
	algo := a.config.GetString("hash.password.algorithm")
	pepper := a.config.GetString("hash.bcrypt.pepper")
	if algo == "argon2id" {
		pepper = a.config.GetString("hash.argon2id.pepper")
	}
	return a.adaptiveHash(algo, a.config.GetInt("hash.bcrypt.cost"), pepper)
}

// otpCodeHash picks the scheme for stored OTP codes. A 6 digit code has a
// million candidates, so it always gets a salted adaptive hash and never the
// keyed HMAC used for reset token lookups.
func (a *App) otpCodeHash() (hash.Hash, error) {
	return a.adaptiveHash(
		a.config.GetString("hash.otp.algorithm"),
		a.config.GetInt("hash.otp.bcrypt_cost"),
		a.config.GetString("hash.otp.pepper"),
	)
}

func (a *App) adaptiveHash(algo string, bcryptCost int, pepper string) (hash.Hash, error) {
	switch algo {
	case "", "bcrypt":
		return hash.NewBcrypt(bcryptCost, pepper), nil
	case "argon2id":
		return hash.NewArgon2id(pepper, hash.Argon2idOptions{
			Memory:        a.config.GetUint32("hash.argon2id.memory_kib"),
			Iterations:    a.config.GetUint32("hash.argon2id.iterations"),
			Parallelism:   uint8(min(a.config.GetUint("hash.argon2id.parallelism"), 255)), //nolint:gosec // clamped
			MaxConcurrent: a.config.GetInt("hash.argon2id.max_concurrent"),
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownHashAlgorithm, algo)
	}
}

func (a *App) initJWT() {
	j, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(a.config.GetString("jwt.secret")),
		Issuer:     a.config.GetString("jwt.issuer"),
		Audiences:  a.config.GetArray("jwt.audiences"),
		TTL:        a.config.GetMinute("jwt.ttl_minutes"),
		Clock:      a.clock,
		UUID:       a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt", "error", err)
		os.Exit(1)
	}
	a.jwt = j
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			router.HeaderAPIKey,
			router.HeaderIdempotencyKey,
			router.HeaderCorrelationID,
		},
		ExposedHeaders:   []string{router.HeaderCorrelationID},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}
