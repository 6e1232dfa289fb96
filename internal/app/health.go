package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/router"
)

type healthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Aligned  bool              `json:"time_aligned"`
	OffsetMs int64             `json:"time_offset_ms"`
}

func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok", "redis": "ok"}

	errDB := a.dbConn.Ping(ctx)
	if errDB != nil {
		checks["database"] = "down"
	}
	errCache := a.cacheConn.Ping(ctx).Err()
	if errCache != nil {
		checks["redis"] = "down"
	}

	if err := errors.Join(errDB, errCache); err != nil {
		slog.ErrorContext(ctx, "health check failed", "checks", checks, "error", err)
		return nil, goerror.NewServer(err)
	}

	offset, aligned := a.timeSync.Offset()

	return healthResponse{
		Status:   "ok",
		Checks:   checks,
		Aligned:  aligned,
		OffsetMs: offset.Milliseconds(),
	}, nil
}
