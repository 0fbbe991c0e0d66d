package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by storage.driver.
const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
	DriverLocal = "local"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

var driverAliases = map[string]string{
	"aws-s3":     DriverS3,
	"google-gcs": DriverGCS,
	"filesystem": DriverLocal,
	"fs":         DriverLocal,
}

// ParseDriver normalizes a configured attachment store name.
func ParseDriver(name string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := driverAliases[d]; ok {
		d = alias
	}

	switch d {
	case DriverS3, DriverGCS, DriverMinIO, DriverLocal:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s, %s, %s, %s)", ErrUnknownDriver, name,
			DriverLocal, DriverMinIO, DriverS3, DriverGCS)
	}
}

// FactoryOptions carries the settings of every attachment store; only the
// selected driver's block is read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
	Local LocalOptions
}

// NewFromDriver builds the store that holds idea attachments.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	d, err := ParseDriver(driver)
	if err != nil {
		return nil, err
	}

	switch d {
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverGCS:
		return NewGCS(ctx, opts.GCS)
	case DriverMinIO:
		return NewMinIO(opts.MinIO)
	default:
		return NewLocal(opts.Local)
	}
}
