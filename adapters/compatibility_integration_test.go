package adapters_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/AmmarHussainn/lawcusworkfinal/adapters/gocommand"
	"github.com/AmmarHussainn/lawcusworkfinal/adapters/gojob"
	"github.com/AmmarHussainn/lawcusworkfinal/adapters/gologger"
	bridgecommand "github.com/AmmarHussainn/lawcusworkfinal/command"
	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
)

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	ctx := context.Background()

	logger := &compatLogger{}
	provider := &compatProvider{logger: logger}

	_, _, jobProvider, jobLogger := gologger.ResolveForJob("lawcus", provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	enqueueProbe := &compatEnqueuer{}
	enqueueAdapter := gojob.NewEnqueuerAdapter(enqueueProbe)
	if err := enqueueAdapter.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          gojob.JobIDRefresh,
		Parameters:     map[string]any{"expires_at": "2026-01-10T13:00:00Z"},
		IdempotencyKey: "idem_1",
		DedupPolicy:    "drop",
	}); err != nil {
		t.Fatalf("enqueue via gojob adapter: %v", err)
	}
	if enqueueProbe.last == nil || enqueueProbe.last.JobID != gojob.JobIDRefresh {
		t.Fatalf("expected go-job message mapping through enqueuer adapter")
	}

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := commandAdapter.RegisterCommand(command.CommandFunc[compatMessage](func(context.Context, compatMessage) error {
		return nil
	})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get("lawcus.compat.command"); !ok {
		t.Fatalf("expected command resolver hook to mirror command into go-job queue registry")
	}
}

func TestRuntimeCompatibility_TokenCommandDispatchThroughWrappers(t *testing.T) {
	svc := &compatTokenService{}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	refreshSub, err := gocommand.RegisterAndSubscribe(adapter, bridgecommand.NewRefreshCommand(svc))
	if err != nil {
		t.Fatalf("register refresh wrapper: %v", err)
	}
	defer refreshSub.Unsubscribe()

	logoutSub, err := gocommand.RegisterAndSubscribe(adapter, bridgecommand.NewLogoutCommand(svc))
	if err != nil {
		t.Fatalf("register logout wrapper: %v", err)
	}
	defer logoutSub.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	if err := gocommand.Dispatch(context.Background(), bridgecommand.RefreshMessage{}); err != nil {
		t.Fatalf("dispatch refresh message: %v", err)
	}
	if svc.refreshCalls != 1 {
		t.Fatalf("expected refresh wrapper invocation through dispatcher, got %d", svc.refreshCalls)
	}

	if err := gocommand.Dispatch(context.Background(), bridgecommand.LogoutMessage{}); err != nil {
		t.Fatalf("dispatch logout message: %v", err)
	}
	if svc.logoutCalls != 1 {
		t.Fatalf("expected logout wrapper invocation through dispatcher, got %d", svc.logoutCalls)
	}
}

func TestRuntimeCompatibility_LeadCommandDispatchThroughWrappers(t *testing.T) {
	svc := &compatLeadService{}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	createSub, err := gocommand.RegisterAndSubscribe(adapter, bridgecommand.NewCreateLeadCommand(svc))
	if err != nil {
		t.Fatalf("register create wrapper: %v", err)
	}
	defer createSub.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	if err := gocommand.Dispatch(context.Background(), bridgecommand.CreateLeadMessage{
		Input: leads.CreateLeadInput{Name: "Ada Lovelace"},
	}); err != nil {
		t.Fatalf("dispatch create lead message: %v", err)
	}
	if svc.createCalls != 1 || svc.lastCreateName != "Ada Lovelace" {
		t.Fatalf("expected create wrapper invocation through dispatcher")
	}
}

type compatMessage struct{}

func (compatMessage) Type() string { return "lawcus.compat.command" }

type compatEnqueuer struct {
	last *job.ExecutionMessage
}

func (e *compatEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	e.last = msg
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }

type compatTokenService struct {
	refreshCalls int
	logoutCalls  int
}

func (s *compatTokenService) Connect(context.Context, core.ConnectRequest) (core.BeginAuthResponse, error) {
	return core.BeginAuthResponse{}, nil
}

func (s *compatTokenService) CompleteCallback(context.Context, core.CompleteAuthRequest) (core.TokenStatus, error) {
	return core.TokenStatus{}, nil
}

func (s *compatTokenService) ExchangeAuthorizationCode(context.Context, core.ExchangeRequest) (core.TokenStatus, error) {
	return core.TokenStatus{}, nil
}

func (s *compatTokenService) Refresh(context.Context) (core.TokenStatus, error) {
	s.refreshCalls++
	return core.TokenStatus{State: core.TokenStateValid}, nil
}

func (s *compatTokenService) Logout(context.Context) error {
	s.logoutCalls++
	return nil
}

type compatLeadService struct {
	createCalls    int
	lastCreateName string
}

func (s *compatLeadService) Create(_ context.Context, input leads.CreateLeadInput) (leads.Lead, error) {
	s.createCalls++
	s.lastCreateName = input.Name
	return leads.Lead{ID: "lead-1", Name: input.Name}, nil
}

func (s *compatLeadService) Update(_ context.Context, id string, input leads.UpdateLeadInput) (leads.Lead, error) {
	return leads.Lead{ID: id}, nil
}

func (s *compatLeadService) Delete(context.Context, string) error {
	return nil
}
