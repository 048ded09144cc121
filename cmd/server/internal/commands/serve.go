package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/forizec/forizec/internal/config"
	"github.com/forizec/forizec/internal/logger"
	"github.com/forizec/forizec/internal/server"
	"github.com/forizec/forizec/internal/store"
	memorystore "github.com/forizec/forizec/internal/store/memory"
	postgresstore "github.com/forizec/forizec/internal/store/postgres"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8000" env:"FORIZEC_LISTEN"`
	Env    string `help:"deployment environment" default:"dev" env:"FORIZEC_ENV" enum:"dev,staging,prod"`

	// Secrets
	SecretKey  string `help:"secret key for session and access token signing" env:"FORIZEC_SECRET_KEY"`
	CSRFSecret string `help:"secret key for CSRF token generation" env:"FORIZEC_CSRF_SECRET"`

	// Cookie and header names
	SessionCookie string `help:"session cookie name" default:"forizec_sessionid" env:"FORIZEC_SESSION_COOKIE"`
	CSRFCookie    string `help:"CSRF cookie name" default:"csrftoken" env:"FORIZEC_CSRF_COOKIE"`
	CSRFHeader    string `help:"CSRF request header name" default:"X-CSRF-Token" env:"FORIZEC_CSRF_HEADER"`

	// Host and origin allow-lists (enforced in prod)
	AllowedHosts   []string `help:"allowed Host header values, supports *.domain wildcards" env:"FORIZEC_ALLOWED_HOSTS"`
	AllowedOrigins []string `help:"allowed CORS origins" env:"FORIZEC_ALLOWED_ORIGINS"`

	// Filesystem
	StaticDir string `help:"directory served under /static" default:"static" env:"FORIZEC_STATIC_DIR"`
	MediaDir  string `help:"directory for uploaded documents, served under /media" default:"media" env:"FORIZEC_MEDIA_DIR"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"FORIZEC_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection configuration; ConnString wins over the discrete fields.
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`
	Host       string `help:"PostgreSQL host" default:"localhost" env:"POSTGRES_HOST"`
	Port       int    `help:"PostgreSQL port" default:"5432" env:"POSTGRES_PORT"`
	User       string `help:"PostgreSQL user" default:"forizec" env:"POSTGRES_USER"`
	Password   string `help:"PostgreSQL password" env:"POSTGRES_PASSWORD"`
	Database   string `help:"PostgreSQL database name" default:"forizec" env:"POSTGRES_DB"`

	// Connection pool configuration
	MaxConns       int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns       int32 `help:"minimum number of connections in pool" default:"5"`
	AcquireTimeout int32 `help:"max seconds to wait for a pooled connection" default:"5"`

	// Migration configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"FORIZEC_POSTGRES_AUTO_MIGRATE"`

	// Startup retry configuration
	ConnectRetryTimeout time.Duration `help:"how long to keep retrying the initial database connection" default:"30s"`
}

func (c *ServeCmd) settings(globals *Globals) *config.Settings {
	return &config.Settings{
		Env:   c.Env,
		Debug: globals.Debug,

		ProjectName: "Forizec",
		Version:     globals.Version,

		DBBackend:   c.StoreType,
		DBHost:      c.PostgresStore.Host,
		DBPort:      c.PostgresStore.Port,
		DBUser:      c.PostgresStore.User,
		DBPassword:  c.PostgresStore.Password,
		DBName:      c.PostgresStore.Database,
		DatabaseURL: c.PostgresStore.ConnString,

		PoolMaxConns:       c.PostgresStore.MaxConns,
		PoolMinConns:       c.PostgresStore.MinConns,
		PoolAcquireTimeout: c.PostgresStore.AcquireTimeout,

		SecretKey:  c.SecretKey,
		CSRFSecret: c.CSRFSecret,

		SessionCookieName: c.SessionCookie,
		CSRFCookieName:    c.CSRFCookie,
		CSRFHeaderName:    c.CSRFHeader,

		AllowedHosts:   c.AllowedHosts,
		AllowedOrigins: c.AllowedOrigins,

		APIV1Prefix: "/api/v1",
		APIV2Prefix: "/api/v2",

		StaticDir: c.StaticDir,
		MediaDir:  c.MediaDir,
	}
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Str("env", c.Env).Msg("Starting server")

	settings := c.settings(globals)
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var st store.Store

	switch c.StoreType {
	case "postgres":
		pool, err := connectPostgres(ctx, settings, &c.PostgresStore, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		st = postgresstore.NewStore(pool, time.Duration(c.PostgresStore.AcquireTimeout)*time.Second)
		log.Info().Msg("Using PostgreSQL store")

	default:
		st = memorystore.NewStore()
		log.Info().Msg("Using in-memory store")
	}

	srv, err := server.New(settings, st, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := configureHTTPServer(c.Listen, srv.Pipeline())
	log.Info().Str("addr", c.Listen).Msg("Listening")
	return httpServer.ListenAndServe()
}

// connectPostgres retries the initial connection so the server survives a
// database that comes up slightly after it does.
func connectPostgres(ctx context.Context, settings *config.Settings, flags *PostgresStoreFlags, log zerolog.Logger) (*pgxpool.Pool, error) {
	connString, err := settings.EffectiveDatabaseURL()
	if err != nil {
		return nil, err
	}
	if connString == "" {
		return nil, errors.New("postgres store requires a connection string")
	}

	poolCfg := &postgresstore.PoolConfig{
		ConnString:     connString,
		MaxConns:       flags.MaxConns,
		MinConns:       flags.MinConns,
		AcquireTimeout: flags.AcquireTimeout,
	}

	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		return postgresstore.NewPool(ctx, poolCfg)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(flags.ConnectRetryTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("Database connection failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}
