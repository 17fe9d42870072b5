// Package credstore defines the kernel's narrow view of an external
// credential store. The kernel itself never manages credentials (spec.md §1's
// explicit non-goal); it only needs a way to pull a bearer token when a
// coordinated command talks to the remote forge. Grounded on
// original_source/keychain.rs (get/set/delete/has against the OS keychain)
// and the teacher's pattern of resolving a token once and handing it to an
// adapter client constructor (github.NewClient(token)).
package credstore

import (
	"context"
	"fmt"
	"os"
)

// Source resolves a bearer token for the remote forge. The kernel depends
// only on this interface; no concrete OS keychain binding lives in this
// tree (out of scope per spec.md §1).
type Source interface {
	Token(ctx context.Context) (string, error)
}

// StaticCredentialStore reads a token from a fixed environment variable. It
// is the only concrete Source in this tree — enough to exercise
// internal/forge in tests without pulling in a real keychain dependency.
type StaticCredentialStore struct {
	envVar string
}

// NewStaticCredentialStore returns a Source backed by envVar.
func NewStaticCredentialStore(envVar string) *StaticCredentialStore {
	return &StaticCredentialStore{envVar: envVar}
}

// Token returns the value of the bound environment variable, or an error if
// it is unset or empty.
func (s *StaticCredentialStore) Token(_ context.Context) (string, error) {
	v := os.Getenv(s.envVar)
	if v == "" {
		return "", fmt.Errorf("%s is not set: not authenticated with the forge", s.envVar)
	}
	return v, nil
}
