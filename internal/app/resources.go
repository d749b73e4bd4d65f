package app

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpify/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpify/internal/pkg/mail"
	"github.com/shandysiswandi/otpify/internal/pkg/messaging"
	"github.com/shandysiswandi/otpify/internal/pkg/storage"
	"github.com/shandysiswandi/otpify/internal/schema"
	"google.golang.org/api/option"
)

const (
	pingTimeout  = 5 * time.Second
	pingAttempts = 5
)

// ping retries fn with a capped fibonacci backoff so the service survives
// dependencies that are still starting.
func (a *App) ping(name string, fn func(context.Context) error) error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxRetries(pingAttempts, b)

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			slog.WarnContext(ctx, "dependency not ready", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initDatabase() {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse database url", "error", err)
		os.Exit(1)
	}
	// Unset keys keep the pgxpool defaults.
	if v := a.config.GetInt32("database.pool.max_conns"); v > 0 {
		pc.MaxConns = v
	}
	if v := a.config.GetInt32("database.pool.min_conns"); v > 0 {
		pc.MinConns = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_lifetime_seconds"); v > 0 {
		pc.MaxConnLifetime = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_idle_seconds"); v > 0 {
		pc.MaxConnIdleTime = v
	}
	if v := a.config.GetSecond("database.pool.health_check_period_seconds"); v > 0 {
		pc.HealthCheckPeriod = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}

	if err := a.ping("database", pool.Ping); err != nil {
		slog.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	// Local and test environments can bootstrap the tables; production
	// applies the DDL out of band.
	if a.config.GetBool("database.apply_schema") {
		if _, err := pool.Exec(a.ctx, schema.SQL); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		slog.Info("database schema applied")
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	if err := a.ping("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		slog.Error("failed to reach redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb)
}

func (a *App) initMail() {
	smtp, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
		StartTLS: a.config.GetBool("mail.starttls"),
		Timeout:  a.config.GetSecond("mail.timeout_seconds"),
	})
	if err != nil {
		slog.Error("failed to init smtp mail", "error", err)
		os.Exit(1)
	}
	a.mail = smtp
}

// str reads a trimmed string key.
func (a *App) str(key string) string {
	return strings.TrimSpace(a.config.GetString(key))
}

func (a *App) initStorage() {
	driver := a.str("storage.driver")

	opts := storage.FactoryOptions{
		Bucket: a.str("storage.bucket"),
		S3: storage.S3Options{
			Region:       a.str("storage.s3.region"),
			Endpoint:     a.str("storage.s3.endpoint"),
			AccessKey:    a.str("storage.s3.access_key"),
			SecretKey:    a.str("storage.s3.secret_key"),
			SessionToken: a.str("storage.s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Region:       a.str("storage.minio.region"),
			Endpoint:     a.str("storage.minio.endpoint"),
			AccessKey:    a.str("storage.minio.access_key"),
			SecretKey:    a.str("storage.minio.secret_key"),
			SessionToken: a.str("storage.minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
		GCS: storage.GCSOptions{
			CredentialsFile: a.str("storage.gcs.credentials_file"),
			CredentialsJSON: a.config.GetBinary("storage.gcs.credentials_json"),
			Endpoint:        a.str("storage.gcs.endpoint"),
			WithoutAuth:     a.config.GetBool("storage.gcs.without_auth"),
			GoogleAccessID:  a.str("storage.gcs.signer_access_id"),
			PrivateKey:      a.config.GetBinary("storage.gcs.signer_private_key"),
		},
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, opts)
	if err != nil {
		slog.Error("failed to init storage", "driver", driver, "error", err)
		os.Exit(1)
	}
	if driver == "" {
		slog.Info("storage disabled, usage log export is unavailable")
	}
	a.storage = stg
}

// nsqConfig reads the go-nsq tuning block; zero values keep the library defaults.
func (a *App) nsqConfig(prefix string) *nsq.Config {
	c := nsq.NewConfig()
	if v := a.config.GetInt(prefix + ".max_in_flight"); v > 0 {
		c.MaxInFlight = v
	}
	if v := a.config.GetUint16(prefix + ".max_attempts"); v > 0 {
		c.MaxAttempts = v
	}
	if v := a.config.GetSecond(prefix + ".lookupd_poll_interval_seconds"); v > 0 {
		c.LookupdPollInterval = v
	}
	if v := a.config.GetSecond(prefix + ".dial_timeout_seconds"); v > 0 {
		c.DialTimeout = v
	}
	if v := a.config.GetSecond(prefix + ".read_timeout_seconds"); v > 0 {
		c.ReadTimeout = v
	}
	if v := a.config.GetSecond(prefix + ".write_timeout_seconds"); v > 0 {
		c.WriteTimeout = v
	}
	if v := a.config.GetSecond(prefix + ".default_requeue_delay_seconds"); v > 0 {
		c.DefaultRequeueDelay = v
	}
	if v := a.config.GetSecond(prefix + ".max_requeue_delay_seconds"); v > 0 {
		c.MaxRequeueDelay = v
	}
	return c
}

func (a *App) initMessaging() {
	driver := a.str("messaging.driver")

	var pubsubOpts []option.ClientOption
	if v := a.str("messaging.pubsub.endpoint"); v != "" {
		// emulator
		pubsubOpts = append(pubsubOpts, option.WithEndpoint(v), option.WithoutAuthentication())
	}

	natsOpts := []nats.Option{
		nats.Name(a.config.GetString("messaging.nats.name")),
		nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
	}
	if v := a.config.GetInt("messaging.nats.max_reconnects"); v != 0 {
		natsOpts = append(natsOpts, nats.MaxReconnects(v))
	}
	if v := a.config.GetSecond("messaging.nats.timeout_seconds"); v > 0 {
		natsOpts = append(natsOpts, nats.Timeout(v))
	}
	if v := a.config.GetSecond("messaging.nats.reconnect_wait_seconds"); v > 0 {
		natsOpts = append(natsOpts, nats.ReconnectWait(v))
	}
	if v := a.config.GetSecond("messaging.nats.ping_interval_seconds"); v > 0 {
		natsOpts = append(natsOpts, nats.PingInterval(v))
	}
	if v := a.config.GetInt("messaging.nats.max_pings_outstanding"); v > 0 {
		natsOpts = append(natsOpts, nats.MaxPingsOutstanding(v))
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			Config:               a.nsqConfig("messaging.nsq.config"),
		},
		NATS: messaging.NATSConfig{
			URL:     a.config.GetString("messaging.nats.url"),
			Options: natsOpts,
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOpts,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "driver", driver, "error", err)
		os.Exit(1)
	}
	a.messaging = client
}

func (a *App) initClosers() {
	add := func(name string, fn func(context.Context) error) {
		a.closers = append(a.closers, struct {
			name string
			fn   func(context.Context) error
		}{name: name, fn: fn})
	}

	add("Messaging", func(context.Context) error { return a.messaging.Close() })
	add("Mail", func(context.Context) error { return a.mail.Close() })
	add("Storage", func(context.Context) error { return a.storage.Close() })
	add("Redis", func(context.Context) error { return a.cacheConn.Close() })
	add("Database", func(context.Context) error {
		a.dbConn.Close()
		return nil
	})
	add("Instrument", func(ctx context.Context) error { return a.ins.Shutdown(ctx) })
	add("Config", func(context.Context) error { return a.config.Close() })
}
