package core

import (
	"context"
	"testing"
	"time"
)

func TestMemoryOAuthStateStoreSingleUse(t *testing.T) {
	store := NewMemoryOAuthStateStore(time.Minute)
	ctx := context.Background()

	record := OAuthStateRecord{
		State:       "state-1",
		RedirectURI: "https://app.example.com/callback",
		Scopes:      []string{"leads.read"},
	}
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	consumed, err := store.Consume(ctx, "state-1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.RedirectURI != record.RedirectURI {
		t.Fatalf("expected redirect %q, got %q", record.RedirectURI, consumed.RedirectURI)
	}

	if _, err := store.Consume(ctx, "state-1"); err == nil {
		t.Fatalf("expected second consume to fail")
	}
}

func TestMemoryOAuthStateStoreExpiry(t *testing.T) {
	store := NewMemoryOAuthStateStore(time.Minute)
	ctx := context.Background()

	createdAt := time.Now().UTC().Add(-time.Hour)
	if err := store.Save(ctx, OAuthStateRecord{
		State:     "stale",
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(time.Minute),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Consume(ctx, "stale"); err == nil {
		t.Fatalf("expected expired state to fail")
	}
}

func TestGenerateOAuthStateUnique(t *testing.T) {
	first, err := generateOAuthState()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := generateOAuthState()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first == "" || first == second {
		t.Fatalf("expected distinct non-empty states, got %q and %q", first, second)
	}
}
