package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/shandysiswandi/vpnguard/internal/pkg/clock"
	"github.com/shandysiswandi/vpnguard/internal/pkg/config"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/lockout"
	"github.com/shandysiswandi/vpnguard/internal/pkg/messaging"
	"github.com/shandysiswandi/vpnguard/internal/pkg/mfa"
	"github.com/shandysiswandi/vpnguard/internal/pkg/otp"
	"github.com/shandysiswandi/vpnguard/internal/pkg/router"
	"github.com/shandysiswandi/vpnguard/internal/pkg/uid"
	"github.com/shandysiswandi/vpnguard/internal/pkg/validator"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("app.env"),
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
	a.goroutine = goroutine.NewManager(a.config.GetInt("server.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflakeFor(int64(a.config.GetInt("modules.vpnauth.node_id")))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	a.totp = otp.NewTOTP(
		a.config.GetString("modules.vpnauth.issuer"),
		a.config.GetUint("modules.vpnauth.totp.period_seconds"),
		libOTP.DigitsSix,
	)

	keys, err := a.encryptionKeys()
	if err != nil {
		slog.Error("failed to init mfa encryption key", "error", err)
		os.Exit(1)
	}
	a.mfaEncryptor = mfa.NewAESGCMEncryptor(keys)
}

// encryptionKeys loads the AES-256 key sealing TOTP secrets. The in-memory
// store may run on an ephemeral key since its data dies with the process.
func (a *App) encryptionKeys() (mfa.StaticKeyProvider, error) {
	encoded := strings.TrimSpace(a.config.GetString("modules.vpnauth.encryption_key"))
	if encoded != "" {
		return mfa.NewStaticKeyProvider(encoded)
	}

	if a.config.GetString("database.driver") != driverMemory {
		return mfa.StaticKeyProvider{}, mfa.ErrMissingStaticKey
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return mfa.StaticKeyProvider{}, err
	}
	slog.Warn("modules.vpnauth.encryption_key is empty, using an ephemeral key")

	return mfa.NewStaticKeyProvider(base64.StdEncoding.EncodeToString(key))
}

func (a *App) initDatabase() {
	driver := a.config.GetString("database.driver")
	switch driver {
	case driverMemory:
		return
	case driverPostgres:
	default:
		slog.Error("unknown database driver", "driver", driver)
		os.Exit(1)
	}

	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	//nolint:gosec // bounded by config
	config.MaxConns = int32(a.config.GetInt("database.max_conns"))
	//nolint:gosec // bounded by config
	config.MinConns = int32(a.config.GetInt("database.min_conns"))
	config.MaxConnLifetime = a.config.GetSecond("database.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.max_conn_idle_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	lockoutCfg := lockout.Config{
		MaxFailures: a.config.GetInt("modules.vpnauth.lockout.max_failures"),
		Window:      a.config.GetSecond("modules.vpnauth.lockout.window_seconds"),
	}

	if !a.config.GetBool("redis.enabled") {
		slog.Warn("redis is disabled, lockout counters are kept per process")
		a.lockout = lockout.NewMemory(a.clock, lockoutCfg)
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.lockout = lockout.NewRedis(rdb, lockoutCfg)
}

func (a *App) initMessaging() {
	if !a.config.GetBool("messaging.enabled") {
		a.messaging = messaging.NewNoop()
		return
	}

	client, err := messaging.NewNATS(messaging.NATSConfig{
		URL:     a.config.GetString("messaging.nats.url"),
		Name:    a.config.GetString("messaging.nats.name"),
		Timeout: a.config.GetSecond("messaging.nats.timeout_seconds"),
		Options: []nats.Option{
			nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
			nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("cors.allowed_origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("server.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("server.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("server.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("server.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}
				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
