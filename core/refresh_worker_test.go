package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type capturingEnqueuer struct {
	mu       sync.Mutex
	messages []*JobExecutionMessage
}

func (e *capturingEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	e.mu.Lock()
	e.messages = append(e.messages, msg)
	e.mu.Unlock()
	return nil
}

type stubDelivery struct {
	message  *JobExecutionMessage
	acked    bool
	nacked   bool
	lastNack JobNackOptions
}

func (d *stubDelivery) Message() *JobExecutionMessage { return d.message }

func (d *stubDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *stubDelivery) Nack(_ context.Context, opts JobNackOptions) error {
	d.nacked = true
	d.lastNack = opts
	return nil
}

func TestScheduleRefreshRespectsLeadWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	enqueuer := &capturingEnqueuer{}
	identity := &fakeIdentityProvider{}
	service, err := NewService(Config{
		ServiceName: "test",
		Tokens: TokenConfig{
			ExpiryMargin:      5 * time.Minute,
			FallbackTTL:       time.Hour,
			RefreshLeadWindow: 10 * time.Minute,
		},
	},
		WithIdentityProvider(identity),
		WithCredentialStore(NewMemoryCredentialStore()),
		WithJobEnqueuer(enqueuer),
		WithNowFunc(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	// Outside the lead window: nothing scheduled.
	service.installCredential(Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(time.Hour),
	})
	scheduled, err := service.ScheduleRefresh(context.Background())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if scheduled || len(enqueuer.messages) != 0 {
		t.Fatalf("expected no job outside lead window")
	}

	// Inside the lead window: one job with an expiry-derived idempotency key.
	service.installCredential(Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(5 * time.Minute),
	})
	scheduled, err = service.ScheduleRefresh(context.Background())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !scheduled || len(enqueuer.messages) != 1 {
		t.Fatalf("expected one queued job, got %d", len(enqueuer.messages))
	}
	message := enqueuer.messages[0]
	if message.JobID != JobIDTokenRefresh {
		t.Fatalf("unexpected job id %q", message.JobID)
	}
	if message.IdempotencyKey == "" {
		t.Fatalf("expected idempotency key")
	}
}

func TestRefreshWorkerAcksOnSuccess(t *testing.T) {
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

	worker := NewRefreshWorker(service, nil, nil)
	delivery := &stubDelivery{message: &JobExecutionMessage{JobID: JobIDTokenRefresh}}
	worker.ProcessDelivery(context.Background(), delivery)

	if !delivery.acked || delivery.nacked {
		t.Fatalf("expected ack, got acked=%t nacked=%t", delivery.acked, delivery.nacked)
	}
}

func TestRefreshWorkerDeadLettersOnReauth(t *testing.T) {
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

	worker := NewRefreshWorker(service, nil, nil)
	delivery := &stubDelivery{message: &JobExecutionMessage{JobID: JobIDTokenRefresh}}
	worker.ProcessDelivery(context.Background(), delivery)

	if delivery.acked || !delivery.nacked {
		t.Fatalf("expected nack, got acked=%t nacked=%t", delivery.acked, delivery.nacked)
	}
	if !delivery.lastNack.DeadLetter {
		t.Fatalf("expected dead letter, got %+v", delivery.lastNack)
	}
}

func TestRefreshWorkerRequeuesTransientFailure(t *testing.T) {
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

	worker := NewRefreshWorker(service, nil, nil)
	delivery := &stubDelivery{message: &JobExecutionMessage{JobID: JobIDTokenRefresh}}
	worker.ProcessDelivery(context.Background(), delivery)

	if delivery.acked || !delivery.nacked {
		t.Fatalf("expected nack, got acked=%t nacked=%t", delivery.acked, delivery.nacked)
	}
	if delivery.lastNack.DeadLetter || !delivery.lastNack.Requeue {
		t.Fatalf("expected requeue without dead letter, got %+v", delivery.lastNack)
	}
	if delivery.lastNack.Delay <= 0 {
		t.Fatalf("expected backoff delay on requeue, got %s", delivery.lastNack.Delay)
	}
	if _, present := service.snapshotCredential(); !present {
		t.Fatalf("expected record retained for the requeued attempt")
	}
}

func TestRefreshWorkerDeadLettersUnknownJob(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(t, &fakeIdentityProvider{}, NewMemoryCredentialStore(), &now)

	worker := NewRefreshWorker(service, nil, nil)
	delivery := &stubDelivery{message: &JobExecutionMessage{JobID: "other.job"}}
	worker.ProcessDelivery(context.Background(), delivery)

	if !delivery.nacked || !delivery.lastNack.DeadLetter {
		t.Fatalf("expected dead letter for unknown job, got %+v", delivery.lastNack)
	}
}
