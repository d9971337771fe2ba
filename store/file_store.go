// Package store holds the credential persistence backends. The file store is
// the default single-tenant backend; the sql subpackage provides the
// versioned database-backed variant.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
)

// FileCredentialStore keeps the credential record as a single JSON document
// on disk. Writes go through a temp file and rename so a crash mid-write
// never leaves a half-written record behind.
type FileCredentialStore struct {
	mu    sync.Mutex
	path  string
	codec core.CredentialCodec
}

type FileOption func(*FileCredentialStore)

func WithFileCodec(codec core.CredentialCodec) FileOption {
	return func(s *FileCredentialStore) {
		if codec != nil {
			s.codec = codec
		}
	}
}

func NewFileCredentialStore(path string, options ...FileOption) (*FileCredentialStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: credential file path is required")
	}

	fileStore := &FileCredentialStore{
		path:  path,
		codec: core.JSONCredentialCodec{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(fileStore)
	}
	return fileStore, nil
}

func (s *FileCredentialStore) Save(ctx context.Context, credential core.Credential) error {
	if s == nil {
		return fmt.Errorf("store: file credential store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := s.codec.Encode(credential)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: close credential file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: set credential file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: replace credential file: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Load(ctx context.Context) (core.Credential, error) {
	if s == nil {
		return core.Credential{}, fmt.Errorf("store: file credential store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return core.Credential{}, err
	}

	s.mu.Lock()
	payload, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Credential{}, core.ErrCredentialNotFound
		}
		return core.Credential{}, fmt.Errorf("store: read credential file: %w", err)
	}

	return s.codec.Decode(payload)
}

func (s *FileCredentialStore) Clear(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("store: file credential store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: remove credential file: %w", err)
	}
	return nil
}

var _ core.CredentialStore = (*FileCredentialStore)(nil)
