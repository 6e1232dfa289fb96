// Package backup keeps sealed account files in object storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
	"github.com/shandysiswandi/steamguard/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const contentType = "application/octet-stream"

type Backup struct {
	store  storage.Storage
	seal   mfa.Encryptor
	bucket string
	prefix string
	ins    instrument.Instrumentation
}

func NewBackup(store storage.Storage, seal mfa.Encryptor, bucket, prefix string, ins instrument.Instrumentation) *Backup {
	return &Backup{
		store:  store,
		seal:   seal,
		bucket: bucket,
		prefix: prefix,
		ins:    ins,
	}
}

func (b *Backup) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return b.ins.Tracer("authenticator.outbound.backup").Start(ctx, name)
}

func (b *Backup) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ObjectKey is <prefix>/<account_id>.mafile.enc.
func (b *Backup) ObjectKey(accountID uint64) string {
	return path.Join(b.prefix, strconv.FormatUint(accountID, 10)+".mafile.enc")
}

func (b *Backup) scope(accountID uint64) mfa.Scope {
	return mfa.Scope{AccountID: accountID, Purpose: mfa.PurposeBackup}
}

// Upload seals the account file of in and stores it, returning the object key.
func (b *Backup) Upload(ctx context.Context, in entity.Authenticator) (_ string, err error) {
	ctx, span := b.startSpan(ctx, "Upload")
	defer func() { b.endSpan(span, err) }()

	plain, err := json.Marshal(in.ToMaFile())
	if err != nil {
		return "", err
	}
	sealed, err := b.seal.Encrypt(plain, b.scope(in.AccountID))
	if err != nil {
		return "", fmt.Errorf("seal backup: %w", err)
	}

	key := b.ObjectKey(in.AccountID)
	_, err = b.store.PutObject(ctx, b.bucket, key, bytes.NewReader(sealed), storage.PutOptions{
		Size:        int64(len(sealed)),
		ContentType: contentType,
		Metadata:    map[string]string{"account-id": strconv.FormatUint(in.AccountID, 10)},
	})
	if err != nil {
		return "", err
	}

	return key, nil
}

// Download opens the stored account file of accountID.
func (b *Backup) Download(ctx context.Context, accountID uint64) (_ *entity.Authenticator, err error) {
	ctx, span := b.startSpan(ctx, "Download")
	defer func() { b.endSpan(span, err) }()

	rc, _, err := b.store.GetObject(ctx, b.bucket, b.ObjectKey(accountID))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sealed, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	plain, err := b.seal.Decrypt(sealed, b.scope(accountID))
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}

	file, err := entity.ParseMaFile(plain)
	if err != nil {
		return nil, err
	}
	auth := file.Authenticator()

	return &auth, nil
}
