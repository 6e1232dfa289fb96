// Package cache keeps short-lived authenticator state in Redis: in-flight link
// attempts and the last confirmation listing of each account.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	linkKeyPrefix    = "steamguard:link:"
	listingKeyPrefix = "steamguard:listing:"

	// listingMarker keeps an empty listing distinguishable from an expired one.
	listingMarker = "_listed"
)

type Cache struct {
	client redis.UniversalClient
	seal   mfa.Encryptor
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, seal mfa.Encryptor, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, seal: seal, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("authenticator.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func linkKey(accountID uint64) string {
	return linkKeyPrefix + strconv.FormatUint(accountID, 10)
}

func listingKey(accountID uint64) string {
	return listingKeyPrefix + strconv.FormatUint(accountID, 10)
}

// SaveLinkAttempt stores the attempt sealed, replacing any previous one.
func (c *Cache) SaveLinkAttempt(ctx context.Context, in entity.LinkAttempt, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SaveLinkAttempt")
	defer func() { c.endSpan(span, err) }()

	plain, err := json.Marshal(in)
	if err != nil {
		return err
	}
	sealed, err := c.seal.Encrypt(plain, mfa.Scope{AccountID: in.AccountID, Purpose: mfa.PurposeLinkAttempt})
	if err != nil {
		return fmt.Errorf("seal link attempt: %w", err)
	}

	err = c.client.Set(ctx, linkKey(in.AccountID), sealed, ttl).Err()
	return err
}

func (c *Cache) GetLinkAttempt(ctx context.Context, accountID uint64) (_ *entity.LinkAttempt, err error) {
	ctx, span := c.startSpan(ctx, "GetLinkAttempt")
	defer func() { c.endSpan(span, err) }()

	sealed, err := c.client.Get(ctx, linkKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	plain, err := c.seal.Decrypt(sealed, mfa.Scope{AccountID: accountID, Purpose: mfa.PurposeLinkAttempt})
	if err != nil {
		return nil, fmt.Errorf("open link attempt: %w", err)
	}

	var out entity.LinkAttempt
	if err = json.Unmarshal(plain, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Cache) DeleteLinkAttempt(ctx context.Context, accountID uint64) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteLinkAttempt")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, linkKey(accountID)).Err()
	return err
}

// SaveListing replaces the id → key map of the account.
func (c *Cache) SaveListing(ctx context.Context, accountID uint64, confs []entity.Confirmation, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SaveListing")
	defer func() { c.endSpan(span, err) }()

	fields := make(map[string]any, len(confs)+1)
	fields[listingMarker] = "1"
	for _, conf := range confs {
		fields[strconv.FormatUint(conf.ID, 10)] = strconv.FormatUint(conf.Key, 10)
	}

	key := listingKey(accountID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		return nil
	})

	return err
}

// GetListing returns the id → key map of the last listing, ErrNotFound once it expired.
func (c *Cache) GetListing(ctx context.Context, accountID uint64) (_ map[uint64]uint64, err error) {
	ctx, span := c.startSpan(ctx, "GetListing")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.HGetAll(ctx, listingKey(accountID)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	out := make(map[uint64]uint64, len(raw))
	for field, value := range raw {
		if field == listingMarker {
			continue
		}
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("listing field %q: %w", field, err)
		}
		key, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("listing value of %d: %w", id, err)
		}
		out[id] = key
	}

	return out, nil
}

// ForgetConfirmations drops decided ids so their keys cannot be resolved again.
func (c *Cache) ForgetConfirmations(ctx context.Context, accountID uint64, ids []uint64) (err error) {
	ctx, span := c.startSpan(ctx, "ForgetConfirmations")
	defer func() { c.endSpan(span, err) }()

	if len(ids) == 0 {
		return nil
	}

	fields := lo.Map(ids, func(id uint64, _ int) string { return strconv.FormatUint(id, 10) })
	err = c.client.HDel(ctx, listingKey(accountID), fields...).Err()
	return err
}
