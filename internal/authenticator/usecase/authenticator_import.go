package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/otp"
)

type ImportAuthenticatorInput struct {
	MaFile []byte `validate:"required"`
	// Optional overrides of the file's session block.
	AccountID    uint64 `validate:"omitempty,steamid"`
	AccessToken  string `validate:"omitempty,jwt"`
	RefreshToken string `validate:"omitempty,jwt"`
}

// importedAuthenticator is what the import validation needs to check.
type importedAuthenticator struct {
	AccountID      uint64 `validate:"required,steamid"`
	SharedSecret   string `validate:"required,base64"`
	IdentitySecret string `validate:"required,base64"`
	DeviceID       string `validate:"required"`
	RevocationCode string `validate:"required"`
}

type ImportAuthenticatorOutput struct {
	AccountID   uint64
	AccountName string
}

// ImportAuthenticator stores an authenticator that was linked elsewhere.
func (s *Usecase) ImportAuthenticator(ctx context.Context, in ImportAuthenticatorInput) (*ImportAuthenticatorOutput, error) {
	ctx, span := s.startSpan(ctx, "ImportAuthenticator")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	file, err := entity.ParseMaFile(in.MaFile)
	if err != nil {
		slog.WarnContext(ctx, "invalid account file", "error", err)
		return nil, goerror.NewInvalidFormat("account file is not valid JSON")
	}

	auth := file.Authenticator()
	if in.AccountID != 0 {
		auth.AccountID = in.AccountID
	}
	auth.Session.AccountID = auth.AccountID
	if in.AccessToken != "" {
		auth.Session.AccessToken = in.AccessToken
	}
	if in.RefreshToken != "" {
		auth.Session.RefreshToken = in.RefreshToken
	}

	if err := s.storeAuthenticator(ctx, &auth); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "authenticator imported", "account_id", auth.AccountID)

	return &ImportAuthenticatorOutput{AccountID: auth.AccountID, AccountName: auth.AccountName}, nil
}

// storeAuthenticator validates auth and creates it with a new id.
func (s *Usecase) storeAuthenticator(ctx context.Context, auth *entity.Authenticator) error {
	if err := s.validator.Validate(importedAuthenticator{
		AccountID:      auth.AccountID,
		SharedSecret:   auth.SharedSecret,
		IdentitySecret: auth.IdentitySecret,
		DeviceID:       auth.DeviceID,
		RevocationCode: auth.RevocationCode,
	}); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if _, err := otp.DecodeSecret(auth.SharedSecret); err != nil {
		return goerror.NewInvalidInput(nil, "shared_secret", "shared secret is not valid base64")
	}

	now := s.clock.Now()
	auth.ID = s.uid.Generate()
	auth.CreatedAt = now
	auth.UpdatedAt = now
	auth.Session.EnsureSessionID(s.sessionID.Generate)

	err := s.repoDB.CreateAuthenticator(ctx, *auth)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "authenticator already stored", "account_id", auth.AccountID)
		return goerror.NewBusiness("an authenticator is already stored for this account", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create authenticator", "account_id", auth.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
