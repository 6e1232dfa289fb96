package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
)

// Removal schemes.
const (
	SchemeReturnToEmail = 1
	SchemeRemoveAll     = 2
)

type RemoveAuthenticatorInput struct {
	AccountID uint64 `validate:"required,steamid"`
	Scheme    int    `validate:"oneof=1 2"`
}

// RemoveAuthenticator deactivates the authenticator with its revocation code
// and forgets it locally.
func (s *Usecase) RemoveAuthenticator(ctx context.Context, in RemoveAuthenticatorInput) error {
	ctx, span := s.startSpan(ctx, "RemoveAuthenticator")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	auth, err := s.getAuthenticator(ctx, in.AccountID)
	if err != nil {
		return err
	}

	if err := s.ensureSession(ctx, auth); err != nil {
		return err
	}

	res, err := s.steam.RemoveAuthenticator(ctx, auth.Session, RemoveAuthenticatorRequest{
		RevocationCode: auth.RevocationCode,
		Scheme:         in.Scheme,
	})
	if errors.Is(err, entity.ErrEmptyResponse) {
		slog.WarnContext(ctx, "remove authenticator returned no body", "account_id", in.AccountID)
		return goerror.NewBusiness("authenticator could not be removed", goerror.CodeUpstream)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to remove authenticator", "account_id", in.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	if !res.Success {
		slog.WarnContext(ctx, "revocation rejected", "account_id", in.AccountID)
		if res.RevocationAttemptsRemaining != nil {
			return goerror.NewBusiness("revocation code rejected", goerror.CodeForbidden,
				"revocation_attempts_remaining", strconv.Itoa(*res.RevocationAttemptsRemaining))
		}
		return goerror.NewBusiness("revocation code rejected", goerror.CodeForbidden)
	}

	if err := s.repoDB.DeleteAuthenticator(ctx, in.AccountID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete authenticator", "account_id", in.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	s.publish(ctx, "publish_authenticator_removed", func(ctx context.Context) error {
		return s.repoMessaging.PublishAuthenticatorRemoved(ctx, AuthenticatorRemovedEvent{
			AccountID: in.AccountID,
			Scheme:    in.Scheme,
			RemovedAt: now,
		})
	})

	slog.InfoContext(ctx, "authenticator removed", "account_id", in.AccountID, "scheme", in.Scheme)

	return nil
}
