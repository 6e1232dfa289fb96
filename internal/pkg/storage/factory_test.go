package storage

import (
	"context"
	"errors"
	"testing"
)

func TestNewFromDriver_Unknown(t *testing.T) {
	// Act
	_, err := NewFromDriver(context.Background(), "ftp", FactoryOptions{})

	// Assert
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestNewFromDriver_MinIO(t *testing.T) {
	// Act
	s, err := NewFromDriver(context.Background(), " MinIO ", FactoryOptions{
		MinIO: MinIOOptions{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
	})

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*MinIOAdapter); !ok {
		t.Fatalf("expected MinIOAdapter, got %T", s)
	}
}
