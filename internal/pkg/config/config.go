// Package config reads application settings from a file, with environment
// overrides, behind a small typed interface.
package config

import (
	"io"
	"time"
)

// Config defines typed accessors for configuration values.
//
// Missing keys and values that cannot be converted yield the zero value.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetSecond reads an integer as seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer as minutes.
	GetMinute(key string) time.Duration
	// GetDuration reads a Go duration string such as "1m30s".
	GetDuration(key string) time.Duration

	// GetBinary reads a base64 value.
	GetBinary(key string) []byte

	// GetArray reads a YAML list or a "<a>,<b>,..." string. Empty elements are dropped.
	GetArray(key string) []string

	// GetMap reads a "<k1>:<v1>,<k2>:<v2>" string.
	GetMap(key string) map[string]string
}
