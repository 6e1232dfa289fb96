//go:build integration

package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/mfa"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const testAccountID uint64 = 76561198000000001

func newTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	keys := mfa.NewDerivedKeyProvider([]byte("0123456789abcdef0123456789abcdef"), []byte("test"))

	return NewCache(client, mfa.NewAESGCMEncryptor(keys), instrument.NewNoop()), client
}

func TestCache_LinkAttempt(t *testing.T) {
	// Arrange
	c, client := newTestCache(t)
	ctx := context.Background()
	in := entity.LinkAttempt{
		AccountID:   testAccountID,
		State:       entity.LinkStateAwaitingFinalizationCode,
		DeviceID:    "android:abc",
		PhoneNumber: "+14255550100",
		Session:     entity.Session{AccountID: testAccountID, AccessToken: "access", SessionID: "sid"},
		Authenticator: &entity.Authenticator{
			AccountID:    testAccountID,
			SharedSecret: "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA=",
		},
		LastResult: entity.LinkResultAwaitingFinalization,
		StartedAt:  time.Unix(1_700_000_000, 0).UTC(),
		UpdatedAt:  time.Unix(1_700_000_000, 0).UTC(),
	}

	// Act
	if err := c.SaveLinkAttempt(ctx, in, time.Minute); err != nil {
		t.Fatalf("SaveLinkAttempt() error = %v", err)
	}
	got, err := c.GetLinkAttempt(ctx, testAccountID)

	// Assert
	if err != nil {
		t.Fatalf("GetLinkAttempt() error = %v", err)
	}
	if got.State != in.State || got.Authenticator == nil || got.Authenticator.SharedSecret != in.Authenticator.SharedSecret {
		t.Fatalf("unexpected attempt: %+v", got)
	}

	raw, err := client.Get(ctx, linkKey(testAccountID)).Bytes()
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if len(raw) > 0 && raw[0] == '{' {
		t.Fatal("link attempt is stored in the clear")
	}

	if err := c.DeleteLinkAttempt(ctx, testAccountID); err != nil {
		t.Fatalf("DeleteLinkAttempt() error = %v", err)
	}
	if _, err := c.GetLinkAttempt(ctx, testAccountID); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCache_Listing(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := c.GetListing(ctx, testAccountID); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before listing, got %v", err)
	}

	// Act
	if err := c.SaveListing(ctx, testAccountID, []entity.Confirmation{{ID: 1, Key: 11}, {ID: 2, Key: 22}}, time.Minute); err != nil {
		t.Fatalf("SaveListing() error = %v", err)
	}
	if err := c.ForgetConfirmations(ctx, testAccountID, []uint64{1}); err != nil {
		t.Fatalf("ForgetConfirmations() error = %v", err)
	}
	got, err := c.GetListing(ctx, testAccountID)

	// Assert
	if err != nil {
		t.Fatalf("GetListing() error = %v", err)
	}
	if len(got) != 1 || got[2] != 22 {
		t.Fatalf("unexpected listing: %v", got)
	}

	if err := c.SaveListing(ctx, testAccountID, nil, time.Minute); err != nil {
		t.Fatalf("SaveListing(empty) error = %v", err)
	}
	got, err = c.GetListing(ctx, testAccountID)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty listing, got %v, %v", got, err)
	}
}
