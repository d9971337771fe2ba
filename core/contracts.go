package core

import (
	"context"
	"errors"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

var (
	// ErrCredentialNotFound signals normal startup state: nothing has been
	// persisted yet. It is not a failure.
	ErrCredentialNotFound = errors.New("core: credential not found")

	// ErrCredentialCorrupt signals a persisted payload that exists but cannot
	// be decoded. Callers treat it as "no credentials" after logging a warning.
	ErrCredentialCorrupt = errors.New("core: credential payload corrupt")
)

// CredentialStore persists the single credential record. Save overwrites the
// prior record in full; Clear on a missing record succeeds. The store never
// mutates state on its own initiative.
type CredentialStore interface {
	Save(ctx context.Context, credential Credential) error
	Load(ctx context.Context) (Credential, error)
	Clear(ctx context.Context) error
}

// IdentityProvider talks to the CRM's OAuth token endpoint.
type IdentityProvider interface {
	AuthorizationURL(state string, redirectURI string, scopes []string) (string, error)
	Exchange(ctx context.Context, code string, redirectURI string) (TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (TokenGrant, error)
}

// TransportRequest is the protocol-neutral request handed to a transport
// adapter.
type TransportRequest struct {
	Method               string
	URL                  string
	Query                map[string]string
	Headers              map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// TokenSource supplies a currently valid access token and a way to force a
// refresh after the resource API rejects one. *Service satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (TokenStatus, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
