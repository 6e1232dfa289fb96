package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// TimeSource reports the authoritative unix time (seconds) of a remote service.
type TimeSource interface {
	ServerTime(ctx context.Context) (int64, error)
}

// Aligner keeps the local clock aligned with a remote TimeSource.
//
// The offset is measured once, on the first call that needs it, and reused for
// the lifetime of the Aligner. A failed measurement leaves the Aligner
// unaligned with a zero offset; the next call measures again.
type Aligner struct {
	source TimeSource
	local  Clocker

	mu      sync.Mutex
	aligned atomic.Bool
	offset  atomic.Int64
}

// NewAligner builds an Aligner on top of the given local clock.
func NewAligner(source TimeSource, local Clocker) *Aligner {
	if local == nil {
		local = New()
	}

	return &Aligner{source: source, local: local}
}

// Now returns the local time shifted by the remote offset.
func (a *Aligner) Now(ctx context.Context) time.Time {
	if !a.aligned.Load() {
		a.alignOnce(ctx)
	}

	return a.local.Now().Add(time.Duration(a.offset.Load()) * time.Second)
}

// Unix is Now as unix seconds.
func (a *Aligner) Unix(ctx context.Context) int64 {
	return a.Now(ctx).Unix()
}

// Offset reports the current offset and whether it has been measured.
func (a *Aligner) Offset() (time.Duration, bool) {
	return time.Duration(a.offset.Load()) * time.Second, a.aligned.Load()
}

// Align measures the offset again, regardless of the current state.
func (a *Aligner) Align(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.measure(ctx)
}

func (a *Aligner) alignOnce(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.aligned.Load() {
		return
	}

	if err := a.measure(ctx); err != nil {
		slog.WarnContext(ctx, "failed to align time with remote, using local clock", "error", err)
	}
}

// measure must be called with mu held.
func (a *Aligner) measure(ctx context.Context) error {
	localAtRequest := a.local.Now().Unix()

	remote, err := a.source.ServerTime(ctx)
	if err != nil {
		return err
	}

	a.offset.Store(remote - localAtRequest)
	a.aligned.Store(true)

	slog.DebugContext(ctx, "time aligned with remote", "offset_seconds", remote-localAtRequest)

	return nil
}
