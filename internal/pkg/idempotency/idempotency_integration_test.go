//go:build integration

package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStateTracker_Exec(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tracker := New(newRedis(t), "test:")
	boom := errors.New("boom")
	calls := 0

	// Act
	errFail := tracker.Exec(ctx, "k", func(context.Context) error { calls++; return boom })
	errOK := tracker.Exec(ctx, "k", func(context.Context) error { calls++; return nil })
	errAgain := tracker.Exec(ctx, "k", func(context.Context) error { calls++; return nil })

	// Assert
	if !errors.Is(errFail, boom) {
		t.Fatalf("expected boom, got %v", errFail)
	}
	if errOK != nil {
		t.Fatalf("expected retry after failure to succeed, got %v", errOK)
	}
	if !errors.Is(errAgain, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", errAgain)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestStateTracker_Acquire(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client := newRedis(t)
	tracker := New(client, "")
	if err := client.Set(ctx, "idempotency:garbage", "??", 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Act
	first, errFirst := tracker.Acquire(ctx, "link:1", 0)
	second, errSecond := tracker.Acquire(ctx, "link:1", 0)
	_, errGarbage := tracker.Acquire(ctx, "garbage", 0)

	// Assert
	if errFirst != nil || first != StateNone {
		t.Fatalf("expected first acquire to win, got %s, %v", first, errFirst)
	}
	if errSecond != nil || second != StateInProgress {
		t.Fatalf("expected in_progress, got %s, %v", second, errSecond)
	}
	if !errors.Is(errGarbage, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", errGarbage)
	}
}
