package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/storage"
)

type BackupInput struct {
	AccountID uint64 `validate:"required,steamid"`
}

type BackupOutput struct {
	AccountID uint64
	Object    string
}

// Backup uploads the sealed account file of a stored authenticator.
func (s *Usecase) Backup(ctx context.Context, in BackupInput) (*BackupOutput, error) {
	ctx, span := s.startSpan(ctx, "Backup")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	auth, err := s.getAuthenticator(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	object, err := s.repoBackup.Upload(ctx, *auth)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upload backup", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "authenticator backed up", "account_id", in.AccountID, "object", object)

	return &BackupOutput{AccountID: in.AccountID, Object: object}, nil
}

type RestoreInput struct {
	AccountID uint64 `validate:"required,steamid"`
}

// Restore downloads a backup and stores it again.
func (s *Usecase) Restore(ctx context.Context, in RestoreInput) (*ImportAuthenticatorOutput, error) {
	ctx, span := s.startSpan(ctx, "Restore")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	auth, err := s.repoBackup.Download(ctx, in.AccountID)
	if errors.Is(err, storage.ErrObjectNotFound) {
		slog.WarnContext(ctx, "backup not found", "account_id", in.AccountID)
		return nil, goerror.NewBusiness("no backup for this account", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo download backup", "account_id", in.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if auth.AccountID != in.AccountID {
		slog.ErrorContext(ctx, "backup belongs to another account", "account_id", in.AccountID, "found", auth.AccountID)
		return nil, goerror.NewBusiness("backup does not match the account", goerror.CodeConflict)
	}

	if err := s.storeAuthenticator(ctx, auth); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "authenticator restored", "account_id", in.AccountID)

	return &ImportAuthenticatorOutput{AccountID: auth.AccountID, AccountName: auth.AccountName}, nil
}
