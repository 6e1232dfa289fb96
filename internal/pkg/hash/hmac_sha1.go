package hash

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the remote protocol mandates HMAC-SHA1
	"encoding/base64"
	"encoding/binary"
	"errors"
	"net/url"
	"strings"
)

// MaxTagLength caps how many tag bytes enter the signed message.
const MaxTagLength = 32

var (
	// ErrMalformedSecret indicates the identity secret is not valid base64.
	ErrMalformedSecret = errors.New("hash: identity secret is not valid base64")
	// ErrMissingSecret indicates no identity secret was provided.
	ErrMissingSecret = errors.New("hash: identity secret is required")
)

// Signer signs confirmation requests.
type Signer interface {
	// Sign returns the signature for time and tag, percent-encoded for a query string.
	Sign(identitySecret string, at int64, tag string) (string, error)
	// Raw returns the same signature as plain standard base64.
	Raw(identitySecret string, at int64, tag string) (string, error)
}

// ConfirmationHMAC implements Signer with HMAC-SHA1 over time and tag.
type ConfirmationHMAC struct{}

// NewConfirmationHMAC returns a confirmation signer.
func NewConfirmationHMAC() *ConfirmationHMAC {
	return &ConfirmationHMAC{}
}

// Sign returns the URL-safe signature.
func (s *ConfirmationHMAC) Sign(identitySecret string, at int64, tag string) (string, error) {
	raw, err := s.Raw(identitySecret, at, tag)
	if err != nil {
		return "", err
	}

	return url.QueryEscape(raw), nil
}

// Raw returns the base64 signature.
func (s *ConfirmationHMAC) Raw(identitySecret string, at int64, tag string) (string, error) {
	key, err := decodeSecret(identitySecret)
	if err != nil {
		return "", err
	}

	tagBytes := []byte(tag)
	if len(tagBytes) > MaxTagLength {
		tagBytes = tagBytes[:MaxTagLength]
	}

	msg := make([]byte, 8+len(tagBytes))
	binary.BigEndian.PutUint64(msg[:8], uint64(at))
	copy(msg[8:], tagBytes)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ReplaceAll(strings.TrimSpace(secret), `\/`, "/")
	if secret == "" {
		return nil, ErrMissingSecret
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, ErrMalformedSecret
	}

	return key, nil
}
