package clock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"
)

type fakeSource struct {
	calls  atomic.Int64
	remote int64
	err    error
	delay  time.Duration
}

func (f *fakeSource) ServerTime(context.Context) (int64, error) {
	f.calls.Inc()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.remote, nil
}

type movingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (m *movingClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *movingClock) advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func TestAligner_AlignsOnceAndTracksLocalClock(t *testing.T) {
	// Arrange
	local := &movingClock{now: time.Unix(1_700_000_000, 0)}
	source := &fakeSource{remote: 1_700_000_042}
	a := NewAligner(source, local)
	ctx := context.Background()

	// Act
	first := a.Unix(ctx)
	local.advance(10 * time.Second)
	second := a.Unix(ctx)

	// Assert
	if first != 1_700_000_042 {
		t.Fatalf("expected aligned time 1700000042, got %d", first)
	}
	if second != 1_700_000_052 {
		t.Fatalf("expected local clock plus offset 1700000052, got %d", second)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one alignment call, got %d", got)
	}
	offset, aligned := a.Offset()
	if !aligned || offset != 42*time.Second {
		t.Fatalf("expected aligned offset 42s, got %v aligned=%v", offset, aligned)
	}
}

func TestAligner_FailureLeavesUnalignedAndRetries(t *testing.T) {
	// Arrange
	local := &movingClock{now: time.Unix(1_700_000_000, 0)}
	source := &fakeSource{remote: 1_700_000_100, err: errors.New("network down")}
	a := NewAligner(source, local)
	ctx := context.Background()

	// Act
	unaligned := a.Unix(ctx)
	source.err = nil
	aligned := a.Unix(ctx)

	// Assert
	if unaligned != 1_700_000_000 {
		t.Fatalf("expected local time while unaligned, got %d", unaligned)
	}
	if aligned != 1_700_000_100 {
		t.Fatalf("expected retry to align, got %d", aligned)
	}
	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected two alignment calls, got %d", got)
	}
}

func TestAligner_ConcurrentFirstUse(t *testing.T) {
	// Arrange
	local := &movingClock{now: time.Unix(1_700_000_000, 0)}
	source := &fakeSource{remote: 1_699_999_990, delay: 20 * time.Millisecond}
	a := NewAligner(source, local)
	ctx := context.Background()

	const callers = 64
	results := make([]int64, callers)
	var wg sync.WaitGroup

	// Act
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.Unix(ctx)
		}()
	}
	wg.Wait()

	// Assert
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected one alignment request, got %d", got)
	}
	for i, r := range results {
		if r != 1_699_999_990 {
			t.Fatalf("caller %d observed %d, want 1699999990", i, r)
		}
	}
}

func TestAligner_ForcedAlign(t *testing.T) {
	// Arrange
	local := &movingClock{now: time.Unix(1_700_000_000, 0)}
	source := &fakeSource{remote: 1_700_000_005}
	a := NewAligner(source, local)
	ctx := context.Background()
	_ = a.Unix(ctx)
	source.remote = 1_700_000_030

	// Act
	err := a.Align(ctx)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Unix(ctx); got != 1_700_000_030 {
		t.Fatalf("expected new offset applied, got %d", got)
	}
}
