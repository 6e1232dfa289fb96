package authenticator

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/steamguard/internal/authenticator/inbound"
	"github.com/shandysiswandi/steamguard/internal/authenticator/outbound/backup"
	"github.com/shandysiswandi/steamguard/internal/authenticator/outbound/cache"
	"github.com/shandysiswandi/steamguard/internal/authenticator/outbound/db"
	"github.com/shandysiswandi/steamguard/internal/authenticator/outbound/mq"
	"github.com/shandysiswandi/steamguard/internal/authenticator/outbound/steamapi"
	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
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
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	CacheConn    *redis.Client              `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Steam        *steamapi.Client           `validate:"required"`
	TimeSync     *clock.Aligner             `validate:"required"`
	Idempotency  idempotency.Idempotency    `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Storage      storage.Storage            `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	UUID         uid.StringID               `validate:"required"`
	SessionID    uid.StringID               `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Codes        otp.CodeGenerator          `validate:"required"`
	Signer       hash.Signer                `validate:"required"`
	Tokens       jwt.Inspector              `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.MFAEncryptor, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.MFAEncryptor, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	repoBackup := backup.NewBackup(
		dep.Storage,
		dep.MFAEncryptor,
		dep.Config.GetString("modules.authenticator.backup.bucket"),
		dep.Config.GetString("modules.authenticator.backup.prefix"),
		dep.Instrument,
	)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoCache:     repoCache,
		RepoMessaging: repoMsg,
		RepoBackup:    repoBackup,
		Steam:         dep.Steam,
		TimeSync:      dep.TimeSync,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Codes:         dep.Codes,
		Signer:        dep.Signer,
		Tokens:        dep.Tokens,
		UID:           dep.UID,
		UUID:          dep.UUID,
		SessionID:     dep.SessionID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
