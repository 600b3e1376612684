// Package config reads service settings behind a small typed interface so
// callers never touch the underlying loader.
package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values. Missing keys yield the zero
// value of the requested type.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	// GetSecond reads an integer as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer as a number of minutes.
	GetMinute(key string) time.Duration

	// GetBinary reads a base64 encoded value. Invalid base64 yields nil.
	GetBinary(key string) []byte

	// GetArray reads a list or a comma separated value, trimming blanks and
	// dropping empty elements.
	GetArray(key string) []string
}
