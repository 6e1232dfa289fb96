package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/uid"
)

type StartLinkInput struct {
	AccountID        uint64 `validate:"required,steamid"`
	AccessToken      string `validate:"required,jwt"`
	RefreshToken     string `validate:"required,jwt"`
	PhoneNumber      string `validate:"omitempty,e164"`
	PhoneCountryCode string `validate:"omitempty,alpha2"`
}

// StartLink opens a linking attempt with a fresh device id.
func (s *Usecase) StartLink(ctx context.Context, in StartLinkInput) (*LinkOutput, error) {
	ctx, span := s.startSpan(ctx, "StartLink")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if sub, err := s.tokens.Subject(in.AccessToken); err == nil && sub != in.AccountID {
		slog.WarnContext(ctx, "access token belongs to another account", "account_id", in.AccountID, "subject", sub)
		return nil, goerror.NewInvalidInput(nil, "access_token", "access token does not belong to this account")
	}

	_, err := s.repoDB.GetAuthenticator(ctx, in.AccountID)
	if err == nil {
		slog.WarnContext(ctx, "authenticator already stored", "account_id", in.AccountID)
		return nil, goerror.NewBusiness("an authenticator is already stored for this account", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get authenticator", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	unlock, err := s.lockLink(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	attempt := &entity.LinkAttempt{
		AccountID:        in.AccountID,
		State:            entity.LinkStateStart,
		DeviceID:         uid.DeviceID(s.uuid),
		PhoneNumber:      strings.TrimSpace(in.PhoneNumber),
		PhoneCountryCode: strings.ToUpper(strings.TrimSpace(in.PhoneCountryCode)),
		Session: entity.Session{
			AccountID:    in.AccountID,
			AccessToken:  in.AccessToken,
			RefreshToken: in.RefreshToken,
			SessionID:    s.sessionID.Generate(),
		},
		StartedAt: now,
		UpdatedAt: now,
	}

	if err := s.saveLinkAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "link attempt started", "account_id", in.AccountID, "device_id", attempt.DeviceID)

	return linkOutput(attempt, entity.LinkResultNone), nil
}
