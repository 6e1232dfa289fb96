package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
)

type ListAccountsOutput struct {
	Accounts []entity.AccountSummary
}

func (s *Usecase) ListAccounts(ctx context.Context) (*ListAccountsOutput, error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer span.End()

	accounts, err := s.repoDB.ListAccounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListAccountsOutput{Accounts: accounts}, nil
}
