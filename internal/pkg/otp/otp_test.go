package otp

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSharedSecret = "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA=" // "12345678901234567890"

func TestSteamTOTP_GenerateCode(t *testing.T) {
	tests := []struct {
		name string
		unix int64
		want string
	}{
		{name: "first window", unix: 59, want: "PV9M4"},
		{name: "rfc vector time", unix: 1111111109, want: "PY4YB"},
		{name: "recent time", unix: 1700000000, want: "R87JJ"},
		{name: "inside next window", unix: 1700000029, want: "5MWGC"},
	}

	gen := NewSteamTOTP()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := gen.GenerateCode(testSharedSecret, time.Unix(tt.unix, 0))

			// Assert
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSteamTOTP_CodeShapeAndWindow(t *testing.T) {
	// Arrange
	gen := NewSteamTOTP()
	start := time.Unix(1700000010, 0)

	// Act
	a, errA := gen.GenerateCode(testSharedSecret, start)
	b, errB := gen.GenerateCode(testSharedSecret, start.Add(29*time.Second))

	// Assert
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v %v", errA, errB)
	}
	if a != b {
		t.Fatalf("expected identical codes in one window, got %s and %s", a, b)
	}
	if len(a) != Length {
		t.Fatalf("expected %d characters, got %q", Length, a)
	}
	for _, r := range a {
		if !strings.ContainsRune(Alphabet, r) {
			t.Fatalf("symbol %q is outside the alphabet", r)
		}
	}
}

func TestSteamTOTP_EmptySecret(t *testing.T) {
	// Act
	got, err := NewSteamTOTP().GenerateCode("", time.Unix(1700000000, 0))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}

func TestSteamTOTP_MalformedSecret(t *testing.T) {
	// Act
	_, err := NewSteamTOTP().GenerateCode("not base64 !!", time.Unix(1700000000, 0))

	// Assert
	if !errors.Is(err, ErrMalformedSecret) {
		t.Fatalf("expected ErrMalformedSecret, got %v", err)
	}
}

func TestDecodeSecret_EscapedSlash(t *testing.T) {
	// Act
	raw, err := DecodeSecret(`1fkoViMVNOGPuU\/nF7OWK1BP9aY=`)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 20 {
		t.Fatalf("expected 20 bytes, got %d", len(raw))
	}
}

func TestValidFor(t *testing.T) {
	if got := ValidFor(time.Unix(1700000010, 0)); got != 30*time.Second {
		t.Fatalf("expected 30s at window start, got %v", got)
	}
	if got := ValidFor(time.Unix(1700000039, 0)); got != time.Second {
		t.Fatalf("expected 1s at window end, got %v", got)
	}
}
