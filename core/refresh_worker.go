package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const JobIDTokenRefresh = "lawcus.token.refresh"

// ScheduleRefresh enqueues a proactive refresh job when the record is inside
// the configured lead window. The idempotency key is derived from the expiry
// so repeated scheduling ticks collapse into one queued job per expiry event.
func (s *Service) ScheduleRefresh(ctx context.Context) (scheduled bool, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"job_id": JobIDTokenRefresh}
	defer func() {
		fields["scheduled"] = scheduled
		s.observeOperation(ctx, startedAt, "schedule_refresh", err, fields)
	}()

	if s == nil {
		return false, fmt.Errorf("core: service is nil")
	}
	if s.jobEnqueuer == nil {
		return false, nil
	}

	credential, present := s.snapshotCredential()
	if !present {
		return false, nil
	}

	now := s.nowUTC()
	state := ResolveCredentialTokenState(now, credential, s.config.Tokens.RefreshLeadWindow)
	if !ShouldScheduleRefresh(now, state, s.config.Tokens.RefreshLeadWindow) {
		return false, nil
	}

	message := &JobExecutionMessage{
		JobID: JobIDTokenRefresh,
		Parameters: map[string]any{
			"expires_at": credential.ExpiresAt.UTC().Format(time.RFC3339),
		},
		IdempotencyKey: JobIDTokenRefresh + ":" + strconv.FormatInt(credential.ExpiresAt.UTC().Unix(), 10),
		DedupPolicy:    "drop",
	}
	if enqueueErr := s.jobEnqueuer.Enqueue(ctx, message); enqueueErr != nil {
		err = s.mapError(enqueueErr)
		return false, err
	}
	return true, nil
}

// RefreshWorker consumes proactive refresh jobs from a queue and drives the
// bounded retry runner. A refresh rejected by the provider dead-letters the
// job; transient failures requeue with backoff.
type RefreshWorker struct {
	service  *Service
	dequeuer JobDequeuer
	hook     JobWorkerHook
}

func NewRefreshWorker(service *Service, dequeuer JobDequeuer, hook JobWorkerHook) *RefreshWorker {
	return &RefreshWorker{
		service:  service,
		dequeuer: dequeuer,
		hook:     hook,
	}
}

// Run processes deliveries until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) error {
	if w == nil || w.service == nil || w.dequeuer == nil {
		return fmt.Errorf("core: refresh worker requires a service and a dequeuer")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivery, err := w.dequeuer.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.service.logWarn(ctx, "refresh worker dequeue failed", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		w.ProcessDelivery(ctx, delivery)
	}
}

// ProcessDelivery runs one refresh job to completion, acking or nacking the
// delivery based on the outcome.
func (w *RefreshWorker) ProcessDelivery(ctx context.Context, delivery JobDelivery) {
	if w == nil || w.service == nil || delivery == nil {
		return
	}
	message := delivery.Message()
	if message == nil || message.JobID != JobIDTokenRefresh {
		_ = delivery.Nack(ctx, JobNackOptions{
			DeadLetter: true,
			Reason:     "unknown job id",
		})
		return
	}

	startedAt := time.Now().UTC()
	event := JobWorkerEvent{Message: message, Attempt: 1, StartedAt: startedAt}
	w.emitStart(ctx, event)

	result, err := w.service.RunRefreshWithRetry(ctx, RefreshRunOptions{})
	event.Attempt = result.Attempts
	event.Duration = time.Since(startedAt)
	event.Err = err

	if err == nil {
		_ = delivery.Ack(ctx)
		w.emitSuccess(ctx, event)
		return
	}

	if result.PendingReauth {
		// The refresh token is dead; requeueing cannot recover it.
		_ = delivery.Nack(ctx, JobNackOptions{
			DeadLetter: true,
			Reason:     "reauthorization required",
		})
		w.emitFailure(ctx, event)
		return
	}

	delay := defaultRefreshInitialBackoff
	if scheduler := w.service.refreshBackoffScheduler; scheduler != nil {
		delay = scheduler.NextDelay(result.Attempts)
	}
	event.Delay = delay
	_ = delivery.Nack(ctx, JobNackOptions{
		Delay:   delay,
		Requeue: true,
		Reason:  "refresh failed; retrying",
	})
	w.emitRetry(ctx, event)
}

func (w *RefreshWorker) emitStart(ctx context.Context, event JobWorkerEvent) {
	if w == nil || w.hook == nil {
		return
	}
	w.hook.OnStart(ctx, event)
}

func (w *RefreshWorker) emitSuccess(ctx context.Context, event JobWorkerEvent) {
	if w == nil || w.hook == nil {
		return
	}
	w.hook.OnSuccess(ctx, event)
}

func (w *RefreshWorker) emitFailure(ctx context.Context, event JobWorkerEvent) {
	if w == nil || w.hook == nil {
		return
	}
	w.hook.OnFailure(ctx, event)
}

func (w *RefreshWorker) emitRetry(ctx context.Context, event JobWorkerEvent) {
	if w == nil || w.hook == nil {
		return
	}
	w.hook.OnRetry(ctx, event)
}
