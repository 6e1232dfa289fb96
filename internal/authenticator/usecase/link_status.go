package usecase

import (
	"context"

	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
)

type LinkStatusInput struct {
	AccountID uint64 `validate:"required,steamid"`
}

func (s *Usecase) LinkStatus(ctx context.Context, in LinkStatusInput) (*LinkOutput, error) {
	ctx, span := s.startSpan(ctx, "LinkStatus")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	attempt, err := s.getLinkAttempt(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	return linkOutput(attempt, attempt.LastResult), nil
}
