package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// SessionID generates 32-character lowercase hex strings for web session cookies.
type SessionID struct{}

// NewSessionID returns a session id generator.
func NewSessionID() *SessionID {
	return &SessionID{}
}

// Generate returns 16 random bytes as hex.
func (s *SessionID) Generate() string {
	var raw [16]byte
	_, _ = rand.Read(raw[:])

	return hex.EncodeToString(raw[:])
}
