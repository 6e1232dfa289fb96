package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
)

type ServerTimeOutput struct {
	ServerTime time.Time
	LocalTime  time.Time
	Offset     time.Duration
	Aligned    bool
}

// ServerTime reports the aligned time. The first call aligns lazily.
func (s *Usecase) ServerTime(ctx context.Context) (*ServerTimeOutput, error) {
	ctx, span := s.startSpan(ctx, "ServerTime")
	defer span.End()

	now := s.timeSync.Now(ctx)
	offset, aligned := s.timeSync.Offset()

	return &ServerTimeOutput{
		ServerTime: now,
		LocalTime:  s.clock.Now(),
		Offset:     offset,
		Aligned:    aligned,
	}, nil
}

// AlignTime measures the offset again.
func (s *Usecase) AlignTime(ctx context.Context) (*ServerTimeOutput, error) {
	ctx, span := s.startSpan(ctx, "AlignTime")
	defer span.End()

	if err := s.timeSync.Align(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to align time", "error", err)
		return nil, goerror.NewServer(err)
	}

	offset, aligned := s.timeSync.Offset()
	slog.InfoContext(ctx, "time realigned", "offset_seconds", int64(offset/time.Second))

	return &ServerTimeOutput{
		ServerTime: s.timeSync.Now(ctx),
		LocalTime:  s.clock.Now(),
		Offset:     offset,
		Aligned:    aligned,
	}, nil
}
