package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
)

type RefreshSessionInput struct {
	AccountID uint64 `validate:"required,steamid"`
}

type RefreshSessionOutput struct {
	AccountID uint64
	ExpiresAt time.Time
}

// RefreshSession exchanges the stored refresh token for a new access token.
func (s *Usecase) RefreshSession(ctx context.Context, in RefreshSessionInput) (*RefreshSessionOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshSession")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	auth, err := s.getAuthenticator(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	auth.Session.EnsureSessionID(s.sessionID.Generate)
	if auth.Session.AccountID == 0 {
		auth.Session.AccountID = auth.AccountID
	}

	if err := s.refreshAccessToken(ctx, &auth.Session); err != nil {
		return nil, err
	}

	if err := s.repoDB.UpdateSession(ctx, in.AccountID, auth.Session); err != nil {
		slog.ErrorContext(ctx, "failed to repo update session", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &RefreshSessionOutput{AccountID: in.AccountID}
	if exp, err := s.tokens.ExpiresAt(auth.Session.AccessToken); err == nil {
		out.ExpiresAt = exp
	}

	slog.InfoContext(ctx, "session refreshed", "account_id", in.AccountID)

	return out, nil
}
