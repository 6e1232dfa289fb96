package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/otp"
)

type GenerateCodeInput struct {
	AccountID uint64 `validate:"required,steamid"`
}

type GenerateCodeOutput struct {
	Code       string
	ServerTime int64
	ValidFor   time.Duration
}

// GenerateCode returns the current login code of a stored authenticator.
func (s *Usecase) GenerateCode(ctx context.Context, in GenerateCodeInput) (*GenerateCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "GenerateCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	auth, err := s.getAuthenticator(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	at := s.timeSync.Now(ctx)
	code, err := s.codes.GenerateCode(auth.SharedSecret, at)
	if errors.Is(err, otp.ErrMalformedSecret) {
		slog.ErrorContext(ctx, "stored shared secret is malformed", "account_id", in.AccountID)
		return nil, goerror.NewBusiness("stored shared secret is malformed", goerror.CodeInvalidInput)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &GenerateCodeOutput{
		Code:       code,
		ServerTime: at.Unix(),
		ValidFor:   otp.ValidFor(at),
	}, nil
}
