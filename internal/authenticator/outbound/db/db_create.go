package db

import (
	"context"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
)

const queryCreateAuthenticator = `INSERT INTO ` + table + ` (
	id, account_id, account_name, device_id, serial_number, token_gid, server_time, status,
	fully_enrolled, session_id, shared_secret, identity_secret, revocation_code, secret_1, uri,
	access_token, refresh_token, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

// sealedColumns are the encrypted columns of one row, in insert order.
type sealedColumns struct {
	sharedSecret   []byte
	identitySecret []byte
	revocationCode []byte
	secret1        []byte
	uri            []byte
	accessToken    []byte
	refreshToken   []byte
}

func (s *DB) sealAuthenticator(in entity.Authenticator) (*sealedColumns, error) {
	fields := []struct {
		purpose mfa.Purpose
		value   string
	}{
		{mfa.PurposeSharedSecret, in.SharedSecret},
		{mfa.PurposeIdentitySecret, in.IdentitySecret},
		{mfa.PurposeRevocationCode, in.RevocationCode},
		{mfa.PurposeAccountFile, in.Secret1},
		{mfa.PurposeAccountFile, in.URI},
		{mfa.PurposeSession, in.Session.AccessToken},
		{mfa.PurposeSession, in.Session.RefreshToken},
	}

	out := make([][]byte, len(fields))
	for i, f := range fields {
		v, err := s.sealValue(in.AccountID, f.purpose, f.value)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return &sealedColumns{
		sharedSecret:   out[0],
		identitySecret: out[1],
		revocationCode: out[2],
		secret1:        out[3],
		uri:            out[4],
		accessToken:    out[5],
		refreshToken:   out[6],
	}, nil
}

func (s *DB) CreateAuthenticator(ctx context.Context, in entity.Authenticator) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAuthenticator")
	defer func() { s.endSpan(span, err) }()

	cols, err := s.sealAuthenticator(in)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, queryCreateAuthenticator,
		int64(in.ID), int64(in.AccountID), in.AccountName, in.DeviceID, in.SerialNumber, in.TokenGID,
		in.ServerTime, in.Status, in.FullyEnrolled, in.Session.SessionID,
		cols.sharedSecret, cols.identitySecret, cols.revocationCode, cols.secret1, cols.uri,
		cols.accessToken, cols.refreshToken,
		in.CreatedAt, in.UpdatedAt,
	)

	err = s.mapError(err)
	return err
}
