package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const table = "steamguard_authenticators"

type DB struct {
	conn *pgxpool.Pool
	seal mfa.Encryptor
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, seal mfa.Encryptor, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		seal: seal,
		ins:  ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authenticator.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// sealValue encrypts v for the account and purpose. Empty values are stored as NULL.
func (s *DB) sealValue(accountID uint64, p mfa.Purpose, v string) ([]byte, error) {
	if v == "" {
		return nil, nil
	}

	out, err := s.seal.Encrypt([]byte(v), mfa.Scope{AccountID: accountID, Purpose: p})
	if err != nil {
		return nil, fmt.Errorf("seal %s: %w", p, err)
	}

	return out, nil
}

func (s *DB) openValue(accountID uint64, p mfa.Purpose, v []byte) (string, error) {
	if len(v) == 0 {
		return "", nil
	}

	out, err := s.seal.Decrypt(v, mfa.Scope{AccountID: accountID, Purpose: p})
	if err != nil {
		return "", fmt.Errorf("open %s: %w", p, err)
	}

	return string(out), nil
}
