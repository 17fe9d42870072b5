package credstore

import (
	"context"
	"testing"
)

func TestStaticCredentialStore(t *testing.T) {
	t.Setenv("KERNEL_TEST_TOKEN", "tok-123")
	s := NewStaticCredentialStore("KERNEL_TEST_TOKEN")

	tok, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-123" {
		t.Errorf("expected tok-123, got %q", tok)
	}
}

func TestStaticCredentialStoreUnset(t *testing.T) {
	t.Setenv("KERNEL_TEST_TOKEN_UNSET", "")
	s := NewStaticCredentialStore("KERNEL_TEST_TOKEN_UNSET")

	if _, err := s.Token(context.Background()); err == nil {
		t.Fatal("expected error for unset token")
	}
}
