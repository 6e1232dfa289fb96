package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of every backend. Only the selected one is read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

type opener func(ctx context.Context, opts FactoryOptions) (Storage, error)

var drivers = map[string]opener{
	DriverS3: func(ctx context.Context, opts FactoryOptions) (Storage, error) {
		return NewS3(ctx, opts.S3)
	},
	DriverGCS: func(ctx context.Context, opts FactoryOptions) (Storage, error) {
		return NewGCS(ctx, opts.GCS)
	},
	DriverMinIO: func(_ context.Context, opts FactoryOptions) (Storage, error) {
		return NewMinIO(opts.MinIO)
	},
}

// Drivers lists the accepted driver names.
func Drivers() []string {
	names := lo.Keys(drivers)
	slices.Sort(names)
	return names
}

// NewFromDriver opens the backend named by driver, case-insensitively.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	open, ok := drivers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}

	return open(ctx, opts)
}
