package inbound

import (
	"context"

	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
	"github.com/shandysiswandi/steamguard/internal/pkg/router"
)

type uc interface {
	StartLink(ctx context.Context, in usecase.StartLinkInput) (*usecase.LinkOutput, error)
	AddAuthenticator(ctx context.Context, in usecase.AddAuthenticatorInput) (*usecase.LinkOutput, error)
	FinalizeAddAuthenticator(ctx context.Context, in usecase.FinalizeInput) (*usecase.FinalizeOutput, error)
	LinkStatus(ctx context.Context, in usecase.LinkStatusInput) (*usecase.LinkOutput, error)

	ListAccounts(ctx context.Context) (*usecase.ListAccountsOutput, error)
	ImportAuthenticator(ctx context.Context, in usecase.ImportAuthenticatorInput) (*usecase.ImportAuthenticatorOutput, error)
	GenerateCode(ctx context.Context, in usecase.GenerateCodeInput) (*usecase.GenerateCodeOutput, error)
	RemoveAuthenticator(ctx context.Context, in usecase.RemoveAuthenticatorInput) error
	RefreshSession(ctx context.Context, in usecase.RefreshSessionInput) (*usecase.RefreshSessionOutput, error)
	Backup(ctx context.Context, in usecase.BackupInput) (*usecase.BackupOutput, error)
	Restore(ctx context.Context, in usecase.RestoreInput) (*usecase.ImportAuthenticatorOutput, error)

	ListConfirmations(ctx context.Context, in usecase.ListConfirmationsInput) (*usecase.ListConfirmationsOutput, error)
	DecideConfirmations(ctx context.Context, in usecase.DecideConfirmationsInput) (*usecase.DecideConfirmationsOutput, error)

	ServerTime(ctx context.Context) (*usecase.ServerTimeOutput, error)
	AlignTime(ctx context.Context) (*usecase.ServerTimeOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Linking
	r.POST("/api/v1/steamguard/links", end.StartLink)
	r.GET("/api/v1/steamguard/links/:account_id", end.LinkStatus)
	r.POST("/api/v1/steamguard/links/:account_id/authenticator", end.AddAuthenticator)
	r.POST("/api/v1/steamguard/links/:account_id/finalize", end.FinalizeAddAuthenticator)

	// Accounts
	r.GET("/api/v1/steamguard/accounts", end.ListAccounts)
	r.POST("/api/v1/steamguard/accounts-import", end.ImportAuthenticator)
	r.GET("/api/v1/steamguard/accounts/:account_id/code", end.GenerateCode)
	r.DELETE("/api/v1/steamguard/accounts/:account_id", end.RemoveAuthenticator)
	r.POST("/api/v1/steamguard/accounts/:account_id/session/refresh", end.RefreshSession)
	r.POST("/api/v1/steamguard/accounts/:account_id/backup", end.Backup)
	r.POST("/api/v1/steamguard/accounts/:account_id/restore", end.Restore)

	// Confirmations
	r.GET("/api/v1/steamguard/accounts/:account_id/confirmations", end.ListConfirmations)
	r.POST("/api/v1/steamguard/accounts/:account_id/confirmations/decide", end.DecideConfirmations)

	// Time
	r.GET("/api/v1/steamguard/time", end.ServerTime)
	r.POST("/api/v1/steamguard/time/align", end.AlignTime)
}
