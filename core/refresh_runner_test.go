package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestExponentialBackoffScheduler(t *testing.T) {
	scheduler := ExponentialBackoffScheduler{
		Initial: 100 * time.Millisecond,
		Max:     time.Second,
	}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 100 * time.Millisecond},
		{attempt: 1, want: 100 * time.Millisecond},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 3, want: 400 * time.Millisecond},
		{attempt: 10, want: time.Second},
	}
	for _, tc := range cases {
		if got := scheduler.NextDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %s, got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestIsUnrecoverableRefreshError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain_transient", err: fmt.Errorf("connection reset"), want: false},
		{name: "invalid_grant", err: fmt.Errorf("provider said invalid_grant"), want: true},
		{
			name: "refresh_failed_envelope",
			err: goerrors.New("refresh rejected", goerrors.CategoryAuth).
				WithTextCode(ServiceErrorRefreshFailed),
			want: true,
		},
		{
			name: "external_envelope",
			err:  goerrors.New("gateway timeout", goerrors.CategoryExternal),
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUnrecoverableRefreshError(tc.err); got != tc.want {
				t.Fatalf("expected %t, got %t", tc.want, got)
			}
		})
	}
}

func TestRunRefreshWithRetryShortCircuitsOnReauth(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	identity := &fakeIdentityProvider{
		refreshErr: fmt.Errorf("invalid_grant"),
	}
	service := newTestService(t, identity, NewMemoryCredentialStore(), &now)
	service.installCredential(Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(-time.Minute),
	})

	result, err := service.RunRefreshWithRetry(context.Background(), RefreshRunOptions{MaxAttempts: 3})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if result.Attempts != 1 {
		t.Fatalf("expected a single attempt for an unrecoverable error, got %d", result.Attempts)
	}
	if !result.PendingReauth {
		t.Fatalf("expected pending reauth flag")
	}
	if identity.RefreshCalls() != 1 {
		t.Fatalf("expected one provider call, got %d", identity.RefreshCalls())
	}
}

func newRetryTestService(t *testing.T, identity IdentityProvider, maxAttempts int, now time.Time) *Service {
	t.Helper()
	service, err := NewService(Config{
		ServiceName: "test",
		Tokens: TokenConfig{
			ExpiryMargin:       5 * time.Minute,
			FallbackTTL:        time.Hour,
			RefreshMaxAttempts: maxAttempts,
		},
	},
		WithIdentityProvider(identity),
		WithCredentialStore(NewMemoryCredentialStore()),
		WithRefreshBackoffScheduler(ExponentialBackoffScheduler{
			Initial: time.Millisecond,
			Max:     2 * time.Millisecond,
		}),
		WithNowFunc(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestRunRefreshWithRetryRecoversAfterTransientFailure(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	identity := &fakeIdentityProvider{
		refreshErrs: []error{
			goerrors.New("bad gateway", goerrors.CategoryExternal).
				WithTextCode(ServiceErrorTransport),
		},
		refreshGrant: TokenGrant{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresIn:    3600,
		},
	}
	service := newRetryTestService(t, identity, 3, now)
	service.installCredential(Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(-time.Minute),
	})

	result, err := service.RunRefreshWithRetry(context.Background(), RefreshRunOptions{})
	if err != nil {
		t.Fatalf("run refresh: %v", err)
	}
	if result.Attempts != 2 || result.PendingReauth {
		t.Fatalf("expected recovery on second attempt, got %+v", result)
	}
	if identity.RefreshCalls() != 2 {
		t.Fatalf("expected two provider calls, got %d", identity.RefreshCalls())
	}
	credential, present := service.snapshotCredential()
	if !present || credential.AccessToken != "access-2" {
		t.Fatalf("expected refreshed record, got present=%t %+v", present, credential)
	}
}

func TestRunRefreshWithRetryExhaustsTransientFailures(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	identity := &fakeIdentityProvider{
		refreshErr: goerrors.New("bad gateway", goerrors.CategoryExternal).
			WithTextCode(ServiceErrorTransport),
	}
	service := newRetryTestService(t, identity, 2, now)
	service.installCredential(Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(-time.Minute),
	})

	result, err := service.RunRefreshWithRetry(context.Background(), RefreshRunOptions{})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if result.Attempts != 2 {
		t.Fatalf("expected both attempts spent, got %d", result.Attempts)
	}
	if result.PendingReauth {
		t.Fatalf("transient exhaustion must not demand reauthorization")
	}
	if identity.RefreshCalls() != 2 {
		t.Fatalf("expected two provider calls, got %d", identity.RefreshCalls())
	}
	// The refresh token was never rejected; the record stays for a requeue.
	if _, present := service.snapshotCredential(); !present {
		t.Fatalf("expected record retained after transient exhaustion")
	}
}

func TestRunRefreshWithRetrySucceedsFirstAttempt(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	identity := &fakeIdentityProvider{
		refreshGrant: TokenGrant{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresIn:    3600,
		},
	}
	service := newTestService(t, identity, NewMemoryCredentialStore(), &now)
	service.installCredential(Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(-time.Minute),
	})

	result, err := service.RunRefreshWithRetry(context.Background(), RefreshRunOptions{})
	if err != nil {
		t.Fatalf("run refresh: %v", err)
	}
	if result.Attempts != 1 || result.PendingReauth {
		t.Fatalf("unexpected result: %+v", result)
	}
}
