package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/otp"
)

// maxFinalizeAttempts bounds the code submissions of one finalize call.
const maxFinalizeAttempts = 11

type FinalizeInput struct {
	AccountID      uint64 `validate:"required,steamid"`
	ActivationCode string `validate:"required,activation_code"`
}

type FinalizeOutput struct {
	AccountID      uint64
	Result         entity.FinalizeResult
	State          entity.LinkState
	SerialNumber   string
	RevocationCode string
}

// FinalizeAddAuthenticator submits the SMS activation code together with
// freshly generated codes until the remote is satisfied.
func (s *Usecase) FinalizeAddAuthenticator(ctx context.Context, in FinalizeInput) (*FinalizeOutput, error) {
	ctx, span := s.startSpan(ctx, "FinalizeAddAuthenticator")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	unlock, err := s.lockLink(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	attempt, err := s.getLinkAttempt(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	if attempt.State != entity.LinkStateAwaitingFinalizationCode || attempt.Authenticator == nil {
		slog.WarnContext(ctx, "link attempt not awaiting activation code", "account_id", in.AccountID, "state", attempt.State.String())
		return nil, goerror.NewBusiness("linking attempt is not waiting for an activation code", goerror.CodeConflict)
	}

	auth := attempt.Authenticator
	result, err := s.submitActivation(ctx, auth, in.ActivationCode)
	if err != nil {
		return nil, err
	}

	out := &FinalizeOutput{
		AccountID:      in.AccountID,
		Result:         result,
		State:          attempt.State,
		SerialNumber:   auth.SerialNumber,
		RevocationCode: auth.RevocationCode,
	}
	if result != entity.FinalizeResultSuccess {
		slog.WarnContext(ctx, "finalize not accepted", "account_id", in.AccountID, "result", result.String())
		return out, nil
	}

	now := s.clock.Now()
	auth.ID = s.uid.Generate()
	auth.FullyEnrolled = true
	auth.CreatedAt = now
	auth.UpdatedAt = now

	if err := s.repoDB.CreateAuthenticator(ctx, *auth); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "authenticator stored concurrently", "account_id", in.AccountID)
			return nil, goerror.NewBusiness("an authenticator is already stored for this account", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create authenticator", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if _, err := attempt.Apply(entity.LinkEventFinalized, now); err != nil {
		slog.ErrorContext(ctx, "failed to apply finalize event", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}
	out.State = attempt.State

	if err := s.repoCache.DeleteLinkAttempt(ctx, in.AccountID); err != nil {
		slog.WarnContext(ctx, "failed to repo delete link attempt", "account_id", in.AccountID, "error", err)
	}

	linked := *auth
	s.publish(ctx, "publish_authenticator_linked", func(ctx context.Context) error {
		return s.repoMessaging.PublishAuthenticatorLinked(ctx, AuthenticatorLinkedEvent{
			AccountID:    linked.AccountID,
			AccountName:  linked.AccountName,
			SerialNumber: linked.SerialNumber,
			DeviceID:     linked.DeviceID,
			LinkedAt:     now,
		})
	})
	if s.cfg.GetBool("modules.authenticator.backup.enabled") {
		s.publish(ctx, "backup_authenticator", func(ctx context.Context) error {
			_, err := s.repoBackup.Upload(ctx, linked)
			return err
		})
	}

	slog.InfoContext(ctx, "authenticator linked", "account_id", in.AccountID, "serial_number", auth.SerialNumber)

	return out, nil
}

// submitActivation is the finalize loop. Remote rejections are results,
// transport failures are errors.
func (s *Usecase) submitActivation(ctx context.Context, auth *entity.Authenticator, activationCode string) (entity.FinalizeResult, error) {
	if auth.SharedSecret == "" {
		slog.WarnContext(ctx, "issued authenticator has no shared secret", "account_id", auth.AccountID)
		return entity.FinalizeResultGeneralFailure, nil
	}

	for i := range maxFinalizeAttempts {
		at := s.timeSync.Now(ctx)

		code, err := s.codes.GenerateCode(auth.SharedSecret, at)
		if errors.Is(err, otp.ErrNoCode) {
			slog.WarnContext(ctx, "no code produced, attempt spent", "account_id", auth.AccountID, "attempt", i+1)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate code", "account_id", auth.AccountID, "error", err)
			return 0, goerror.NewServer(err)
		}

		res, err := s.steam.FinalizeAddAuthenticator(ctx, auth.Session, FinalizeAuthenticatorRequest{
			AuthenticatorCode: code,
			AuthenticatorTime: at.Unix(),
			ActivationCode:    activationCode,
		})
		if errors.Is(err, entity.ErrEmptyResponse) {
			return entity.FinalizeResultGeneralFailure, nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to finalize authenticator", "account_id", auth.AccountID, "error", err)
			return 0, goerror.NewServer(err)
		}

		switch {
		case res.StatusIs(StatusBadActivationCode):
			return entity.FinalizeResultBadAuthCode, nil
		case res.StatusIs(StatusWantMoreCodes):
			slog.DebugContext(ctx, "remote wants more codes", "account_id", auth.AccountID, "attempt", i+1)
			continue
		case !res.Success:
			return entity.FinalizeResultGeneralFailure, nil
		case res.WantMore:
			slog.DebugContext(ctx, "remote wants more codes", "account_id", auth.AccountID, "attempt", i+1)
			continue
		default:
			return entity.FinalizeResultSuccess, nil
		}
	}

	return entity.FinalizeResultUnableToGenerateCorrectCodes, nil
}
