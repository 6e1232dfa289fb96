// Package uid generates identifiers for rows, devices and web sessions.
package uid

import "github.com/google/uuid"

// NumberID generates sortable numeric identifiers.
type NumberID interface {
	Generate() uint64
}

// StringID generates opaque string identifiers.
type StringID interface {
	Generate() string
}

// UUID yields time-ordered v7 UUIDs and falls back to random v4 ones.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// DeviceID formats the mobile device identifier the remote service expects.
func DeviceID(gen StringID) string {
	return "android:" + gen.Generate()
}
