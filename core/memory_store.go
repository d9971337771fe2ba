package core

import (
	"context"
	"sync"
)

// MemoryCredentialStore keeps the credential record in process memory. It is
// the default store for tests and for deployments that accept losing the
// session on restart.
type MemoryCredentialStore struct {
	mu      sync.Mutex
	record  Credential
	present bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Save(_ context.Context, credential Credential) error {
	if s == nil {
		return ErrCredentialNotFound
	}
	s.mu.Lock()
	s.record = credential
	s.present = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Load(_ context.Context) (Credential, error) {
	if s == nil {
		return Credential{}, ErrCredentialNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return Credential{}, ErrCredentialNotFound
	}
	return s.record, nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.record = Credential{}
	s.present = false
	s.mu.Unlock()
	return nil
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)
