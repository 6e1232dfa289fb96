package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/authenticator/outbound/steamapi"
	"github.com/shandysiswandi/steamguard/internal/pkg/clock"
	"github.com/shandysiswandi/steamguard/internal/pkg/hash"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/otp"
	"github.com/shandysiswandi/steamguard/internal/pkg/webclient"
)

// ToolConfig configures a Tool.
type ToolConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	// Offline skips time alignment and uses the local clock as is.
	Offline bool
	// Clock defaults to the system clock.
	Clock clock.Clocker
}

// Tool works on a single account file without the database, cache or server.
type Tool struct {
	codes    otp.CodeGenerator
	signer   hash.Signer
	local    clock.Clocker
	timeSync *clock.Aligner
}

func NewTool(cfg ToolConfig) *Tool {
	local := cfg.Clock
	if local == nil {
		local = clock.New()
	}

	t := &Tool{
		codes:  otp.NewSteamTOTP(),
		signer: hash.NewConfirmationHMAC(),
		local:  local,
	}

	if !cfg.Offline {
		web := webclient.New(webclient.Config{Timeout: cfg.Timeout})
		steam := steamapi.NewClient(web, steamapi.Config{APIBaseURL: cfg.APIBaseURL}, instrument.NewNoop())
		t.timeSync = clock.NewAligner(steam, local)
	}

	return t
}

func (t *Tool) now(ctx context.Context) time.Time {
	if t.timeSync == nil {
		return t.local.Now()
	}

	return t.timeSync.Now(ctx)
}

// ToolCode is a generated login code.
type ToolCode struct {
	AccountName string
	Code        string
	ValidFor    time.Duration
}

// ToolSignature is a confirmation signature for one tag.
type ToolSignature struct {
	AccountName string
	Time        int64
	Tag         string
	Signature   string
}

func readMaFile(path string) (entity.MaFile, error) {
	// #nosec G304 -- path is supplied by the operator on the command line.
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.MaFile{}, fmt.Errorf("read account file: %w", err)
	}

	maFile, err := entity.ParseMaFile(data)
	if err != nil {
		return entity.MaFile{}, fmt.Errorf("parse account file: %w", err)
	}

	return maFile, nil
}

// Code generates the current login code for the account file at path.
func (t *Tool) Code(ctx context.Context, path string) (*ToolCode, error) {
	maFile, err := readMaFile(path)
	if err != nil {
		return nil, err
	}
	if maFile.SharedSecret == "" {
		return nil, otp.ErrNoCode
	}

	at := t.now(ctx)
	code, err := t.codes.GenerateCode(maFile.SharedSecret, at)
	if err != nil {
		return nil, err
	}

	return &ToolCode{AccountName: maFile.AccountName, Code: code, ValidFor: otp.ValidFor(at)}, nil
}

// Sign computes the confirmation signature for tag at the current aligned time.
func (t *Tool) Sign(ctx context.Context, path, tag string) (*ToolSignature, error) {
	maFile, err := readMaFile(path)
	if err != nil {
		return nil, err
	}

	at := t.now(ctx).Unix()
	sig, err := t.signer.Raw(maFile.IdentitySecret, at, tag)
	if err != nil {
		return nil, err
	}

	return &ToolSignature{AccountName: maFile.AccountName, Time: at, Tag: tag, Signature: sig}, nil
}
