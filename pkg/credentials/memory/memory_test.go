package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/rhuss/mistral-bridge/pkg/credentials"
)

func TestWriteAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Write(ctx, "https://api.mistral.ai/v1", "Bearer", []byte("key-1")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Read(ctx, "https://api.mistral.ai/v1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Username != "Bearer" || string(got.Secret) != "key-1" {
		t.Errorf("Read = %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestReadNotFound(t *testing.T) {
	_, err := New().Read(context.Background(), "https://nowhere")
	if !errors.Is(err, credentials.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOverwriteAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	url := "https://api.mistral.ai/v1"

	_ = s.Write(ctx, url, "Bearer", []byte("old"))
	_ = s.Write(ctx, url, "Bearer", []byte("new"))

	got, err := s.Read(ctx, url)
	if err != nil || string(got.Secret) != "new" {
		t.Fatalf("Read after overwrite = %v, %v", got, err)
	}

	if err := s.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, url); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
	if _, err := s.Read(ctx, url); !errors.Is(err, credentials.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSecretIsCopied(t *testing.T) {
	s := New()
	ctx := context.Background()

	secret := []byte("abc")
	_ = s.Write(ctx, "u", "Bearer", secret)
	secret[0] = 'x'

	got, _ := s.Read(ctx, "u")
	if string(got.Secret) != "abc" {
		t.Errorf("stored secret changed through caller slice: %q", got.Secret)
	}

	got.Secret[0] = 'y'
	again, _ := s.Read(ctx, "u")
	if string(again.Secret) != "abc" {
		t.Errorf("stored secret changed through returned slice: %q", again.Secret)
	}
}

func TestURLsAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Write(ctx, "https://a", "Bearer", []byte("a"))
	_ = s.Write(ctx, "https://b", "Bearer", []byte("b"))
	_ = s.Delete(ctx, "https://a")

	if got, err := s.Read(ctx, "https://b"); err != nil || string(got.Secret) != "b" {
		t.Errorf("entry for other URL affected: %v, %v", got, err)
	}
}
