package db

import (
	"context"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
)

const queryUpdateSession = `UPDATE ` + table + `
SET access_token = $2, refresh_token = $3, session_id = $4, updated_at = NOW()
WHERE account_id = $1`

const queryDeleteAuthenticator = `DELETE FROM ` + table + ` WHERE account_id = $1`

func (s *DB) UpdateSession(ctx context.Context, accountID uint64, sess entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateSession")
	defer func() { s.endSpan(span, err) }()

	access, err := s.sealValue(accountID, mfa.PurposeSession, sess.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := s.sealValue(accountID, mfa.PurposeSession, sess.RefreshToken)
	if err != nil {
		return err
	}

	tag, err := s.conn.Exec(ctx, queryUpdateSession, int64(accountID), access, refresh, sess.SessionID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}

func (s *DB) DeleteAuthenticator(ctx context.Context, accountID uint64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteAuthenticator")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryDeleteAuthenticator, int64(accountID))
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
