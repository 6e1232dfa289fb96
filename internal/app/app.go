package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	uid          uid.NumberID
	uuid         uid.StringID
	sessionID    uid.StringID
	codes        otp.CodeGenerator
	signer       hash.Signer
	tokens       jwt.Inspector
	mfaEncryptor mfa.Encryptor

	// remote
	web      *webclient.HTTP
	steam    *steamapi.Client
	timeSync *clock.Aligner

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
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
	app.initRemote()
	app.initDatabase()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()

	return app
}
