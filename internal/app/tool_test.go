package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shandysiswandi/steamguard/internal/pkg/otp"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func writeMaFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "account.maFile")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write account file: %v", err)
	}

	return path
}

const testMaFile = `{
	"shared_secret": "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA=",
	"identity_secret": "aWRlbnRpdHktc2VjcmV0LTAxMjM=",
	"account_name": "gaben",
	"Session": {"SteamID": 76561198000000001}
}`

func TestTool_CodeAlignedWithRemote(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"server_time":"1700000000"}}`))
	}))
	t.Cleanup(srv.Close)

	tool := NewTool(ToolConfig{APIBaseURL: srv.URL, Clock: fixedClock{at: time.Unix(1699999000, 0)}})
	path := writeMaFile(t, testMaFile)

	// Act
	got, err := tool.Code(context.Background(), path)

	// Assert
	if err != nil {
		t.Fatalf("Code() error = %v", err)
	}
	if got.Code != "R87JJ" || got.AccountName != "gaben" {
		t.Fatalf("unexpected code %+v", got)
	}
	if got.ValidFor != 10*time.Second {
		t.Fatalf("expected 10s validity, got %s", got.ValidFor)
	}
}

func TestTool_CodeFallsBackToLocalClock(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	tool := NewTool(ToolConfig{APIBaseURL: srv.URL, Clock: fixedClock{at: time.Unix(1700000000, 0)}})
	path := writeMaFile(t, testMaFile)

	// Act
	got, err := tool.Code(context.Background(), path)

	// Assert
	if err != nil {
		t.Fatalf("Code() error = %v", err)
	}
	if got.Code != "R87JJ" {
		t.Fatalf("expected local clock code, got %s", got.Code)
	}
}

func TestTool_CodeWithoutSecret(t *testing.T) {
	// Arrange
	tool := NewTool(ToolConfig{Offline: true, Clock: fixedClock{at: time.Unix(1700000000, 0)}})
	path := writeMaFile(t, `{"account_name":"gaben"}`)

	// Act
	_, err := tool.Code(context.Background(), path)

	// Assert
	if !errors.Is(err, otp.ErrNoCode) {
		t.Fatalf("expected ErrNoCode, got %v", err)
	}
}

func TestTool_Sign(t *testing.T) {
	// Arrange
	tool := NewTool(ToolConfig{Offline: true, Clock: fixedClock{at: time.Unix(1700000000, 0)}})
	path := writeMaFile(t, testMaFile)

	// Act
	got, err := tool.Sign(context.Background(), path, "conf")

	// Assert
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if got.Signature != "1fkoViMVNOGPuU/nF7OWK1BP9aY=" || got.Time != 1700000000 || got.Tag != "conf" {
		t.Fatalf("unexpected signature %+v", got)
	}
}

func TestTool_MissingFile(t *testing.T) {
	// Arrange
	tool := NewTool(ToolConfig{Offline: true})

	// Act
	_, err := tool.Code(context.Background(), filepath.Join(t.TempDir(), "missing.maFile"))

	// Assert
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
