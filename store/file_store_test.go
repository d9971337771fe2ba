package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
)

func testCredential() core.Credential {
	return core.Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Scope:        "leads:read leads:write",
		IssuedAt:     time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		ExpiresAt:    time.Date(2026, 1, 10, 13, 0, 0, 0, time.UTC),
	}
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	fileStore, err := NewFileCredentialStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	want := testCredential()
	if err := fileStore.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := fileStore.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
		t.Fatalf("unexpected credential %+v", got)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", want.ExpiresAt, got.ExpiresAt)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat credential file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Fatalf("expected 0600 mode, got %v", mode)
	}
}

func TestFileStoreMissingFileIsNotFound(t *testing.T) {
	fileStore, err := NewFileCredentialStore(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	_, err = fileStore.Load(context.Background())
	if !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	fileStore, err := NewFileCredentialStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	_, err = fileStore.Load(context.Background())
	if !errors.Is(err, core.ErrCredentialCorrupt) {
		t.Fatalf("expected corrupt, got %v", err)
	}
	if errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("corrupt must not be reported as not found")
	}
}

func TestFileStoreSaveReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	fileStore, err := NewFileCredentialStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	first := testCredential()
	if err := fileStore.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := first
	second.AccessToken = "access-2"
	second.RefreshToken = "refresh-2"
	if err := fileStore.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := fileStore.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != "access-2" || got.RefreshToken != "refresh-2" {
		t.Fatalf("expected replaced record, got %+v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileStoreClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	fileStore, err := NewFileCredentialStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if err := fileStore.Save(ctx, testCredential()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := fileStore.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := fileStore.Load(ctx); !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}

	// Clearing an already-absent record is a no-op.
	if err := fileStore.Clear(ctx); err != nil {
		t.Fatalf("clear absent: %v", err)
	}
}
