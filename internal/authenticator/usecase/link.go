package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/idempotency"
)

type LinkOutput struct {
	AccountID         uint64
	State             entity.LinkState
	Result            entity.LinkResult
	DeviceID          string
	ConfirmationEmail string
	// RevocationCode is only set once the secrets were issued.
	RevocationCode string
}

func linkOutput(a *entity.LinkAttempt, res entity.LinkResult) *LinkOutput {
	out := &LinkOutput{
		AccountID:         a.AccountID,
		State:             a.State,
		Result:            res,
		DeviceID:          a.DeviceID,
		ConfirmationEmail: a.ConfirmationEmail,
	}
	if a.Authenticator != nil {
		out.RevocationCode = a.Authenticator.RevocationCode
	}

	return out
}

func linkLockKey(accountID uint64) string {
	return "link:" + strconv.FormatUint(accountID, 10)
}

// lockLink serializes linking steps of one account across instances.
func (s *Usecase) lockLink(ctx context.Context, accountID uint64) (func(), error) {
	key := linkLockKey(accountID)
	state, err := s.idemp.Acquire(ctx, key, s.cfg.GetSecond("modules.authenticator.link_lock_seconds"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire link lock", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if state != idempotency.StateNone {
		slog.WarnContext(ctx, "link step already running", "account_id", accountID, "state", state)
		return nil, goerror.NewBusiness("another linking step is running for this account", goerror.CodeTooManyRequest)
	}

	return func() {
		if err := s.idemp.Release(context.WithoutCancel(ctx), key); err != nil {
			slog.WarnContext(ctx, "failed to release link lock", "account_id", accountID, "error", err)
		}
	}, nil
}

func (s *Usecase) getLinkAttempt(ctx context.Context, accountID uint64) (*entity.LinkAttempt, error) {
	attempt, err := s.repoCache.GetLinkAttempt(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "link attempt not found", "account_id", accountID)
		return nil, goerror.NewBusiness("no linking in progress for this account", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get link attempt", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return attempt, nil
}

func (s *Usecase) saveLinkAttempt(ctx context.Context, attempt *entity.LinkAttempt) error {
	ttl := s.cfg.GetMinute("modules.authenticator.link_ttl_minutes")
	if err := s.repoCache.SaveLinkAttempt(ctx, *attempt, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to repo save link attempt", "account_id", attempt.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
