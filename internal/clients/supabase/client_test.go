package supabase

import (
	"context"
	"errors"
	"testing"

	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

func TestNewClientRequiresURLAndKey(t *testing.T) {
	if _, err := NewClient("", "key", logger.Nop()); err == nil {
		t.Fatalf("expected error for missing url")
	}
	if _, err := NewClient("https://project.supabase.co", " ", logger.Nop()); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestGetUserRejectsEmptyToken(t *testing.T) {
	c := &supabaseClient{log: logger.Nop()}
	if _, err := c.GetUser(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
