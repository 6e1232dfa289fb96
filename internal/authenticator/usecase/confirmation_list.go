package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/hash"
)

type ListConfirmationsInput struct {
	AccountID uint64 `validate:"required,steamid"`
}

type ListConfirmationsOutput struct {
	Confirmations []entity.Confirmation
}

// ListConfirmations fetches the pending confirmations and remembers their keys
// for the decisions that follow.
func (s *Usecase) ListConfirmations(ctx context.Context, in ListConfirmationsInput) (*ListConfirmationsOutput, error) {
	ctx, span := s.startSpan(ctx, "ListConfirmations")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	auth, err := s.getAuthenticator(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureSession(ctx, auth); err != nil {
		return nil, err
	}

	q, err := s.confirmationQuery(ctx, auth, entity.TagList)
	if err != nil {
		return nil, err
	}

	list, err := s.steam.GetConfirmations(ctx, auth.Session, q)
	if errors.Is(err, entity.ErrEmptyResponse) {
		slog.WarnContext(ctx, "confirmation listing returned no body", "account_id", in.AccountID)
		return nil, goerror.NewBusiness(entity.ErrConfirmationsUnavailable.Error(), goerror.CodeUpstream)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get confirmations", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if list.NeedAuth {
		slog.WarnContext(ctx, "confirmation listing needs authentication", "account_id", in.AccountID)
		return nil, goerror.NewBusiness("session expired, refresh or sign in again", goerror.CodeUnauthorized)
	}
	if !list.Success {
		slog.WarnContext(ctx, "confirmation listing rejected", "account_id", in.AccountID, "message", list.Message)
		msg := entity.ErrConfirmationsUnavailable.Error()
		if list.Message != "" {
			return nil, goerror.NewBusiness(msg, goerror.CodeUpstream, "remote_message", list.Message)
		}
		return nil, goerror.NewBusiness(msg, goerror.CodeUpstream)
	}

	ttl := s.cfg.GetSecond("modules.authenticator.listing_ttl_seconds")
	if err := s.repoCache.SaveListing(ctx, in.AccountID, list.Confirmations, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to repo save listing", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListConfirmationsOutput{Confirmations: list.Confirmations}, nil
}

// confirmationQuery signs tag against the aligned time.
func (s *Usecase) confirmationQuery(ctx context.Context, auth *entity.Authenticator, tag string) (ConfirmationQuery, error) {
	if err := auth.CanSignConfirmations(); err != nil {
		slog.ErrorContext(ctx, "authenticator cannot sign confirmations", "account_id", auth.AccountID, "error", err)
		return ConfirmationQuery{}, goerror.NewBusiness("device id is not present on this authenticator", goerror.CodeInvalidInput)
	}

	at := s.timeSync.Unix(ctx)
	sig, err := s.signer.Sign(auth.IdentitySecret, at, tag)
	if errors.Is(err, hash.ErrMalformedSecret) || errors.Is(err, hash.ErrMissingSecret) {
		slog.ErrorContext(ctx, "identity secret unusable", "account_id", auth.AccountID, "error", err)
		return ConfirmationQuery{}, goerror.NewBusiness("stored identity secret is malformed", goerror.CodeInvalidInput)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign confirmation query", "account_id", auth.AccountID, "error", err)
		return ConfirmationQuery{}, goerror.NewServer(err)
	}

	return ConfirmationQuery{
		DeviceID:  auth.DeviceID,
		AccountID: auth.AccountID,
		Signature: sig,
		Time:      at,
		Tag:       tag,
	}, nil
}
