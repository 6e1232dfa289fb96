package otp

import (
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the code window in seconds.
	Period uint = 30
	// Length is the number of symbols in a code.
	Length = 5
	// Alphabet lists the symbols a code is drawn from.
	Alphabet = "23456789BCDFGHJKMNPQRTVWXY"
)

var (
	// ErrMalformedSecret indicates the shared secret is not valid base64.
	ErrMalformedSecret = errors.New("otp: shared secret is not valid base64")
	// ErrNoCode indicates the code could not be computed for this secret and time.
	ErrNoCode = errors.New("otp: no code produced")
)

// CodeGenerator produces login codes from a shared secret.
type CodeGenerator interface {
	// GenerateCode returns the code for the window containing at.
	// An empty secret yields an empty code and no error.
	GenerateCode(sharedSecret string, at time.Time) (string, error)
}

// SteamTOTP implements CodeGenerator with the Steam alphabet.
type SteamTOTP struct {
	opts totp.ValidateOpts
}

// NewSteamTOTP returns a SteamTOTP generator.
func NewSteamTOTP() *SteamTOTP {
	return &SteamTOTP{
		opts: totp.ValidateOpts{
			Period:    Period,
			Digits:    otp.Digits(Length),
			Algorithm: otp.AlgorithmSHA1,
			Encoder:   otp.EncoderSteam,
		},
	}
}

// GenerateCode returns the code for the window containing at.
func (s *SteamTOTP) GenerateCode(sharedSecret string, at time.Time) (string, error) {
	if sharedSecret == "" {
		return "", nil
	}

	raw, err := DecodeSecret(sharedSecret)
	if err != nil {
		return "", err
	}

	code, err := totp.GenerateCodeCustom(base32.StdEncoding.EncodeToString(raw), at, s.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoCode, err)
	}
	if len(code) != Length {
		return "", ErrNoCode
	}

	return code, nil
}

// DecodeSecret decodes a base64 secret as found in maFiles, including the
// JSON-escaped "\/" form some exporters leave behind.
func DecodeSecret(secret string) ([]byte, error) {
	secret = strings.ReplaceAll(strings.TrimSpace(secret), `\/`, "/")

	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, ErrMalformedSecret
	}
	if len(raw) == 0 {
		return nil, ErrMalformedSecret
	}

	return raw, nil
}

// ValidFor reports how long the code generated at t stays valid.
func ValidFor(t time.Time) time.Duration {
	return time.Duration(int64(Period)-t.Unix()%int64(Period)) * time.Second
}
