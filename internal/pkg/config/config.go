// Package config reads application settings. Missing keys yield zero values;
// callers that need a default apply it themselves.
package config

import (
	"io"
	"time"
)

// Config is the read side of the settings. Values may change at runtime when
// the backing file is reloaded, so hot paths (maintenance routes, OTP TTL,
// reviewer lists) read them per call instead of caching.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration

	// GetBinary decodes a base64 value, such as inline Google credentials.
	// Invalid base64 yields nil.
	GetBinary(key string) []byte

	// GetArray reads a comma separated string or a YAML sequence, dropping
	// blank elements.
	GetArray(key string) []string
}
