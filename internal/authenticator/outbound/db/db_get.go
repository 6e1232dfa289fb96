package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
)

const queryGetAuthenticator = `SELECT
	id, account_id, account_name, device_id, serial_number, token_gid, server_time, status,
	fully_enrolled, session_id, shared_secret, identity_secret, revocation_code, secret_1, uri,
	access_token, refresh_token, created_at, updated_at
FROM ` + table + ` WHERE account_id = $1`

const queryListAccounts = `SELECT account_id, account_name, serial_number, device_id, fully_enrolled, created_at
FROM ` + table + ` ORDER BY account_name, account_id`

func (s *DB) GetAuthenticator(ctx context.Context, accountID uint64) (_ *entity.Authenticator, err error) {
	ctx, span := s.startSpan(ctx, "GetAuthenticator")
	defer func() { s.endSpan(span, err) }()

	var (
		out         entity.Authenticator
		id, account int64
		cols        sealedColumns
	)
	err = s.conn.QueryRow(ctx, queryGetAuthenticator, int64(accountID)).Scan(
		&id, &account, &out.AccountName, &out.DeviceID, &out.SerialNumber, &out.TokenGID,
		&out.ServerTime, &out.Status, &out.FullyEnrolled, &out.Session.SessionID,
		&cols.sharedSecret, &cols.identitySecret, &cols.revocationCode, &cols.secret1, &cols.uri,
		&cols.accessToken, &cols.refreshToken, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	out.ID = uint64(id)
	out.AccountID = uint64(account)
	out.Session.AccountID = out.AccountID

	opened := []struct {
		purpose mfa.Purpose
		value   []byte
		dst     *string
	}{
		{mfa.PurposeSharedSecret, cols.sharedSecret, &out.SharedSecret},
		{mfa.PurposeIdentitySecret, cols.identitySecret, &out.IdentitySecret},
		{mfa.PurposeRevocationCode, cols.revocationCode, &out.RevocationCode},
		{mfa.PurposeAccountFile, cols.secret1, &out.Secret1},
		{mfa.PurposeAccountFile, cols.uri, &out.URI},
		{mfa.PurposeSession, cols.accessToken, &out.Session.AccessToken},
		{mfa.PurposeSession, cols.refreshToken, &out.Session.RefreshToken},
	}
	for _, o := range opened {
		if *o.dst, err = s.openValue(out.AccountID, o.purpose, o.value); err != nil {
			return nil, err
		}
	}

	return &out, nil
}

func (s *DB) ListAccounts(ctx context.Context) (_ []entity.AccountSummary, err error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListAccounts)
	if err != nil {
		return nil, s.mapError(err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.AccountSummary, error) {
		var (
			item    entity.AccountSummary
			account int64
		)
		err := row.Scan(&account, &item.AccountName, &item.SerialNumber, &item.DeviceID, &item.FullyEnrolled, &item.CreatedAt)
		item.AccountID = uint64(account)

		return item, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}
