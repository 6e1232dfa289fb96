package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/clock"
	"github.com/shandysiswandi/steamguard/internal/pkg/config"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/steamguard/internal/pkg/hash"
	"github.com/shandysiswandi/steamguard/internal/pkg/idempotency"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/jwt"
	"github.com/shandysiswandi/steamguard/internal/pkg/otp"
	"github.com/shandysiswandi/steamguard/internal/pkg/uid"
	"github.com/shandysiswandi/steamguard/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type AuthenticatorLinkedEvent struct {
	AccountID    uint64
	AccountName  string
	SerialNumber string
	DeviceID     string
	LinkedAt     time.Time
}

type AuthenticatorRemovedEvent struct {
	AccountID uint64
	Scheme    int
	RemovedAt time.Time
}

type ConfirmationDecidedEvent struct {
	AccountID       uint64
	ConfirmationIDs []uint64
	Approved        bool
	Success         bool
	DecidedAt       time.Time
}

type repoMessaging interface {
	PublishAuthenticatorLinked(ctx context.Context, msg AuthenticatorLinkedEvent) error
	PublishAuthenticatorRemoved(ctx context.Context, msg AuthenticatorRemovedEvent) error
	PublishConfirmationDecided(ctx context.Context, msg ConfirmationDecidedEvent) error
}

type repoDB interface {
	CreateAuthenticator(ctx context.Context, in entity.Authenticator) error
	GetAuthenticator(ctx context.Context, accountID uint64) (*entity.Authenticator, error)
	ListAccounts(ctx context.Context) ([]entity.AccountSummary, error)
	UpdateSession(ctx context.Context, accountID uint64, sess entity.Session) error
	DeleteAuthenticator(ctx context.Context, accountID uint64) error
}

type repoCache interface {
	SaveLinkAttempt(ctx context.Context, in entity.LinkAttempt, ttl time.Duration) error
	GetLinkAttempt(ctx context.Context, accountID uint64) (*entity.LinkAttempt, error)
	DeleteLinkAttempt(ctx context.Context, accountID uint64) error

	SaveListing(ctx context.Context, accountID uint64, confs []entity.Confirmation, ttl time.Duration) error
	GetListing(ctx context.Context, accountID uint64) (map[uint64]uint64, error)
	ForgetConfirmations(ctx context.Context, accountID uint64, ids []uint64) error
}

type repoBackup interface {
	Upload(ctx context.Context, in entity.Authenticator) (string, error)
	Download(ctx context.Context, accountID uint64) (*entity.Authenticator, error)
}

type repoSteam interface {
	AddAuthenticator(ctx context.Context, sess entity.Session, in AddAuthenticatorRequest) (*AddAuthenticatorResult, error)
	FinalizeAddAuthenticator(ctx context.Context, sess entity.Session, in FinalizeAuthenticatorRequest) (*FinalizeAuthenticatorResult, error)
	RemoveAuthenticator(ctx context.Context, sess entity.Session, in RemoveAuthenticatorRequest) (*RemoveAuthenticatorResult, error)

	GetUserCountry(ctx context.Context, sess entity.Session) (string, error)
	SetAccountPhoneNumber(ctx context.Context, sess entity.Session, phone, countryCode string) (*SetPhoneNumberResult, error)
	IsAccountWaitingForEmailConfirmation(ctx context.Context, sess entity.Session) (*EmailConfirmationStatus, error)
	SendPhoneVerificationCode(ctx context.Context, sess entity.Session) error

	GenerateAccessTokenForApp(ctx context.Context, sess entity.Session) (string, error)

	GetConfirmations(ctx context.Context, sess entity.Session, q ConfirmationQuery) (*ConfirmationList, error)
	SendConfirmation(ctx context.Context, sess entity.Session, q ConfirmationQuery, op entity.ConfirmationOp, ref ConfirmationRef) (bool, error)
	SendConfirmations(ctx context.Context, sess entity.Session, q ConfirmationQuery, op entity.ConfirmationOp, refs []ConfirmationRef) (bool, error)
}

// timeSync is the remote-aligned clock.
type timeSync interface {
	Now(ctx context.Context) time.Time
	Unix(ctx context.Context) int64
	Offset() (time.Duration, bool)
	Align(ctx context.Context) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	repoBackup    repoBackup
	steam         repoSteam
	timeSync      timeSync
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	codes         otp.CodeGenerator
	signer        hash.Signer
	tokens        jwt.Inspector
	uid           uid.NumberID
	uuid          uid.StringID
	sessionID     uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	sleep         func(ctx context.Context, d time.Duration) error
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	RepoBackup    repoBackup
	Steam         repoSteam
	TimeSync      timeSync
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Codes         otp.CodeGenerator
	Signer        hash.Signer
	Tokens        jwt.Inspector
	UID           uid.NumberID
	UUID          uid.StringID
	SessionID     uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		repoBackup:    dep.RepoBackup,
		steam:         dep.Steam,
		timeSync:      dep.TimeSync,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		codes:         dep.Codes,
		signer:        dep.Signer,
		tokens:        dep.Tokens,
		uid:           dep.UID,
		uuid:          dep.UUID,
		sessionID:     dep.SessionID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		sleep:         sleepContext,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authenticator.usecase").Start(ctx, name)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// getAuthenticator loads the stored authenticator or maps a miss to a business error.
func (s *Usecase) getAuthenticator(ctx context.Context, accountID uint64) (*entity.Authenticator, error) {
	auth, err := s.repoDB.GetAuthenticator(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticator not found", "account_id", accountID)
		return nil, goerror.NewBusiness("authenticator not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get authenticator", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return auth, nil
}

// ensureSession makes sure the session has a session id and a usable access token,
// refreshing and persisting it when needed.
func (s *Usecase) ensureSession(ctx context.Context, auth *entity.Authenticator) error {
	changed := auth.Session.EnsureSessionID(s.sessionID.Generate)
	if auth.Session.AccountID == 0 {
		auth.Session.AccountID = auth.AccountID
		changed = true
	}

	leeway := s.cfg.GetSecond("modules.authenticator.session_leeway_seconds")
	if s.tokens.Expired(auth.Session.AccessToken, s.clock.Now(), leeway) {
		if err := s.refreshAccessToken(ctx, &auth.Session); err != nil {
			return err
		}
		changed = true
	}

	if !changed {
		return nil
	}

	if err := s.repoDB.UpdateSession(ctx, auth.AccountID, auth.Session); err != nil {
		slog.ErrorContext(ctx, "failed to repo update session", "account_id", auth.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) refreshAccessToken(ctx context.Context, sess *entity.Session) error {
	if s.tokens.Expired(sess.RefreshToken, s.clock.Now(), 0) {
		slog.WarnContext(ctx, "refresh token expired", "account_id", sess.AccountID)
		return goerror.NewBusiness("refresh token expired, sign in again", goerror.CodeUnauthorized)
	}

	token, err := s.steam.GenerateAccessTokenForApp(ctx, *sess)
	if errors.Is(err, entity.ErrEmptyResponse) {
		slog.WarnContext(ctx, "remote returned no access token", "account_id", sess.AccountID)
		return goerror.NewBusiness("access token could not be refreshed", goerror.CodeUpstream)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to refresh access token", "account_id", sess.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	sess.AccessToken = token

	return nil
}

// publish runs fn detached from the request.
func (s *Usecase) publish(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if ok := s.goroutine.Go(ctx, name, fn); !ok {
		slog.WarnContext(ctx, "background task dropped", "task", name)
	}
}
