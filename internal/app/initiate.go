package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/steamguard/internal/authenticator/outbound/steamapi"
	"github.com/shandysiswandi/steamguard/internal/pkg/clock"
	"github.com/shandysiswandi/steamguard/internal/pkg/config"
	"github.com/shandysiswandi/steamguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/steamguard/internal/pkg/hash"
	"github.com/shandysiswandi/steamguard/internal/pkg/idempotency"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/jwt"
	"github.com/shandysiswandi/steamguard/internal/pkg/messaging"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
	"github.com/shandysiswandi/steamguard/internal/pkg/otp"
	"github.com/shandysiswandi/steamguard/internal/pkg/router"
	"github.com/shandysiswandi/steamguard/internal/pkg/storage"
	"github.com/shandysiswandi/steamguard/internal/pkg/uid"
	"github.com/shandysiswandi/steamguard/internal/pkg/validator"
	"github.com/shandysiswandi/steamguard/internal/pkg/webclient"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ConfigPath resolves the config file location from the environment.
func ConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}

	return "/config/config.yaml"
}

// fatal aborts startup. Wiring errors are not recoverable.
func fatal(msg string, err error, kv ...any) {
	slog.Error(msg, append([]any{"error", err}, kv...)...)
	os.Exit(1)
}

// onClose registers fn to run on Stop. Closers run in reverse registration order.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *App) trimmed(key string) string {
	return strings.TrimSpace(a.config.GetString(key))
}

func (a *App) initConfig() {
	cfg, err := config.NewViper(ConfigPath())
	if err != nil {
		fatal("failed to init config", err, "path", ConfigPath())
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // TZ is advisory
		os.Setenv("TZ", tz)
	}

	a.config = cfg
	a.onClose("Config", func(context.Context) error { return cfg.Close() })
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
		fatal("failed to init instrumentation", err)
	}

	a.ins = ins
	a.onClose("Instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.sessionID = uid.NewSessionID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.codes = otp.NewSteamTOTP()
	a.signer = hash.NewConfirmationHMAC()
	a.tokens = jwt.NewUnverified()

	v, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validator", err)
	}
	a.validator = v

	nodeID := a.config.GetInt64("app.node_id")
	snow, err := uid.NewSnowflake(nodeID)
	if err != nil {
		fatal("failed to init snowflake", err, "node_id", nodeID)
	}
	a.uid = snow

	master := a.config.GetBinary("mfa.secret")
	if len(master) != 32 {
		fatal("mfa.secret must decode to 32 bytes", mfa.ErrInvalidKeyLength, "length", len(master))
	}
	a.mfaEncryptor = mfa.NewAESGCMEncryptor(mfa.NewDerivedKeyProvider(master, []byte(a.config.GetString("mfa.salt"))))
}

func (a *App) initRemote() {
	a.web = webclient.New(webclient.Config{
		UserAgent:      a.config.GetString("steam.user_agent"),
		Timeout:        a.config.GetDuration("steam.request_timeout"),
		MaxBodyBytes:   a.config.GetInt64("steam.max_body_bytes"),
		TracerProvider: a.ins.TracerProvider(),
		MeterProvider:  a.ins.MeterProvider(),
	})

	a.steam = steamapi.NewClient(a.web, steamapi.Config{
		APIBaseURL:       a.config.GetString("steam.api_base_url"),
		CommunityBaseURL: a.config.GetString("steam.community_base_url"),
	}, a.ins)

	a.timeSync = clock.NewAligner(a.steam, a.clock)
}

// pingWithRetry retries fn with a capped exponential backoff until it succeeds or attempts run out.
func (a *App) pingWithRetry(fn func(ctx context.Context) error) error {
	b := retry.NewExponential(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxRetries(uint64(max(a.config.GetInt("app.startup_retries"), 0)), b)

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := fn(pingCtx); err != nil {
			slog.WarnContext(ctx, "dependency not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}

		return nil
	})
}

func (a *App) initDatabase() {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("failed to parse database url", err)
	}

	pc.MaxConns = int32(a.config.GetInt("database.pool.max_conns"))
	pc.MinConns = int32(a.config.GetInt("database.pool.min_conns"))
	pc.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		fatal("failed to create database pool", err)
	}
	if err := a.pingWithRetry(pool.Ping); err != nil {
		fatal("database unreachable", err)
	}

	a.dbConn = pool
	a.onClose("Database", func(context.Context) error {
		pool.Close()
		return nil
	})
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		fatal("failed to parse redis url", err)
	}

	rdb := redis.NewClient(opt)
	if err := a.pingWithRetry(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		fatal("redis unreachable", err)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb, a.config.GetString("redis.idempotency_prefix"))
	a.onClose("Redis", func(context.Context) error { return rdb.Close() })
}

func (a *App) gcsCredentials(raw []byte, source string) option.ClientOption {
	creds, err := google.CredentialsFromJSON(a.ctx, raw, gcs.ScopeReadWrite)
	if err != nil {
		fatal("failed to parse gcs credentials", err, "source", source)
	}

	return option.WithCredentials(creds)
}

func (a *App) gcsClientOptions() []option.ClientOption {
	var opts []option.ClientOption

	if a.config.GetBool("storage.gcs.without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	if path := a.trimmed("storage.gcs.credentials_file"); path != "" {
		// #nosec G304 -- path comes from the deployment config.
		raw, err := os.ReadFile(path)
		if err != nil {
			fatal("failed to read gcs credentials file", err)
		}
		opts = append(opts, a.gcsCredentials(raw, "file"))
	}
	if raw := a.config.GetBinary("storage.gcs.credentials_json"); len(raw) > 0 {
		opts = append(opts, a.gcsCredentials(raw, "inline"))
	}
	if v := a.trimmed("storage.gcs.endpoint"); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if v := a.trimmed("storage.gcs.user_agent"); v != "" {
		opts = append(opts, option.WithUserAgent(v))
	}

	return opts
}

func (a *App) storageOptions(driver string) storage.FactoryOptions {
	opts := storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       a.trimmed("storage.s3.region"),
			Endpoint:     a.trimmed("storage.s3.endpoint"),
			AccessKey:    a.trimmed("storage.s3.access_key"),
			SecretKey:    a.trimmed("storage.s3.secret_key"),
			SessionToken: a.trimmed("storage.s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Region:       a.trimmed("storage.minio.region"),
			Endpoint:     a.trimmed("storage.minio.endpoint"),
			AccessKey:    a.trimmed("storage.minio.access_key"),
			SecretKey:    a.trimmed("storage.minio.secret_key"),
			SessionToken: a.trimmed("storage.minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	}
	if driver == storage.DriverGCS {
		opts.GCS.ClientOptions = a.gcsClientOptions()
	}

	return opts
}

func (a *App) initStorage() {
	driver := strings.ToLower(a.trimmed("storage.driver"))

	stg, err := storage.NewFromDriver(a.ctx, driver, a.storageOptions(driver))
	if err != nil {
		fatal("failed to init storage", err, "driver", driver)
	}

	a.storage = stg
	a.onClose("Storage", func(context.Context) error { return stg.Close() })
}

func (a *App) messagingOptions() messaging.FactoryOptions {
	nsqCfg := nsq.NewConfig()
	nsqCfg.DialTimeout = a.config.GetSecond("messaging.nsq.producer_config.dial_timeout_seconds")
	nsqCfg.ReadTimeout = a.config.GetSecond("messaging.nsq.producer_config.read_timeout_seconds")
	nsqCfg.WriteTimeout = a.config.GetSecond("messaging.nsq.producer_config.write_timeout_seconds")

	var pubsubOpts []option.ClientOption
	if v := a.trimmed("messaging.pubsub.endpoint"); v != "" {
		pubsubOpts = []option.ClientOption{option.WithEndpoint(v), option.WithoutAuthentication()}
	}

	return messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			Config:       nsqCfg,
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			BatchTimeout: a.config.GetDuration("messaging.kafka.batch_timeout"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOpts,
		},
	}
}

func (a *App) initMessaging() {
	driver := a.trimmed("messaging.driver")

	client, err := messaging.NewFromDriver(a.ctx, driver, a.messagingOptions())
	if err != nil {
		fatal("failed to init messaging", err, "driver", driver)
	}

	a.messaging = client
	a.onClose("Messaging", func(context.Context) error { return client.Close() })
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
		APITokens:  a.config.GetArray("app.server.api_tokens"),
	})
	a.router.GET("/health", a.health)

	withCORS := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           withCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}
