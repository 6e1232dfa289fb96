package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/samber/lo"
	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/idempotency"
)

type DecideConfirmationsInput struct {
	AccountID       uint64   `validate:"required,steamid"`
	ConfirmationIDs []uint64 `validate:"required,min=1,max=100,unique,dive,required"`
	Approve         bool
}

type DecideConfirmationsOutput struct {
	Success         bool
	ConfirmationIDs []uint64
}

func decisionKey(accountID uint64, ref ConfirmationRef) string {
	return fmt.Sprintf("confirmation:%d:%d:%d", accountID, ref.ID, ref.Key)
}

// DecideConfirmations accepts or cancels confirmations from the latest listing.
// One id goes through the single-op endpoint, several through the batch one.
func (s *Usecase) DecideConfirmations(ctx context.Context, in DecideConfirmationsInput) (*DecideConfirmationsOutput, error) {
	ctx, span := s.startSpan(ctx, "DecideConfirmations")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	auth, err := s.getAuthenticator(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	refs, err := s.resolveRefs(ctx, in.AccountID, in.ConfirmationIDs)
	if err != nil {
		return nil, err
	}

	if err := s.ensureSession(ctx, auth); err != nil {
		return nil, err
	}

	op, tag := entity.DecisionOp(in.Approve)
	q, err := s.confirmationQuery(ctx, auth, tag)
	if err != nil {
		return nil, err
	}

	keys, err := s.claimDecisions(ctx, in.AccountID, refs)
	if err != nil {
		return nil, err
	}

	var ok bool
	if len(refs) == 1 {
		ok, err = s.steam.SendConfirmation(ctx, auth.Session, q, op, refs[0])
	} else {
		ok, err = s.steam.SendConfirmations(ctx, auth.Session, q, op, refs)
	}
	if err != nil || !ok {
		s.releaseDecisions(ctx, keys)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send confirmation decision", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if ok {
		ttl := s.cfg.GetDuration("modules.authenticator.decision_ttl")
		for _, key := range keys {
			if err := s.idemp.MarkCompleted(ctx, key, ttl); err != nil {
				slog.WarnContext(ctx, "failed to mark decision completed", "key", key, "error", err)
			}
		}
		if err := s.repoCache.ForgetConfirmations(ctx, in.AccountID, in.ConfirmationIDs); err != nil {
			slog.WarnContext(ctx, "failed to repo forget confirmations", "account_id", in.AccountID, "error", err)
		}
	}

	now := s.clock.Now()
	ids := append([]uint64(nil), in.ConfirmationIDs...)
	s.publish(ctx, "publish_confirmation_decided", func(ctx context.Context) error {
		return s.repoMessaging.PublishConfirmationDecided(ctx, ConfirmationDecidedEvent{
			AccountID:       in.AccountID,
			ConfirmationIDs: ids,
			Approved:        in.Approve,
			Success:         ok,
			DecidedAt:       now,
		})
	})

	slog.InfoContext(ctx, "confirmations decided", "account_id", in.AccountID,
		"count", len(refs), "approve", in.Approve, "success", ok)

	return &DecideConfirmationsOutput{Success: ok, ConfirmationIDs: in.ConfirmationIDs}, nil
}

// resolveRefs pairs ids with the keys of the cached listing, keeping request order.
func (s *Usecase) resolveRefs(ctx context.Context, accountID uint64, ids []uint64) ([]ConfirmationRef, error) {
	listing, err := s.repoCache.GetListing(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no cached confirmation listing", "account_id", accountID)
		return nil, goerror.NewBusiness("confirmation listing expired, list confirmations again", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get listing", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	unknown := lo.Filter(ids, func(id uint64, _ int) bool {
		_, ok := listing[id]
		return !ok
	})
	if len(unknown) > 0 {
		slog.WarnContext(ctx, "confirmation ids not in listing", "account_id", accountID, "ids", unknown)
		return nil, goerror.NewBusiness("confirmation not found in the latest listing", goerror.CodeNotFound,
			"confirmation_ids", fmt.Sprint(unknown))
	}

	return lo.Map(ids, func(id uint64, _ int) ConfirmationRef {
		return ConfirmationRef{ID: id, Key: listing[id]}
	}), nil
}

// claimDecisions takes the single-use guard of every key. On any clash the
// keys taken so far are given back.
func (s *Usecase) claimDecisions(ctx context.Context, accountID uint64, refs []ConfirmationRef) ([]string, error) {
	lock := s.cfg.GetSecond("modules.authenticator.decision_lock_seconds")
	keys := make([]string, 0, len(refs))

	for _, ref := range refs {
		key := decisionKey(accountID, ref)

		state, err := s.idemp.Acquire(ctx, key, lock)
		if err != nil {
			s.releaseDecisions(ctx, keys)
			slog.ErrorContext(ctx, "failed to acquire decision key", "key", key, "error", err)
			return nil, goerror.NewServer(err)
		}

		switch state {
		case idempotency.StateNone:
			keys = append(keys, key)
		case idempotency.StateCompleted:
			s.releaseDecisions(ctx, keys)
			return nil, goerror.NewBusiness("confirmation was already decided", goerror.CodeConflict,
				"confirmation_id", strconv.FormatUint(ref.ID, 10))
		default:
			s.releaseDecisions(ctx, keys)
			return nil, goerror.NewBusiness("confirmation decision is in progress", goerror.CodeTooManyRequest,
				"confirmation_id", strconv.FormatUint(ref.ID, 10))
		}
	}

	return keys, nil
}

func (s *Usecase) releaseDecisions(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.idemp.Release(context.WithoutCancel(ctx), key); err != nil {
			slog.WarnContext(ctx, "failed to release decision key", "key", key, "error", err)
		}
	}
}
