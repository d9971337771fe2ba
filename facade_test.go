package lawcus

import (
	"context"
	"testing"

	"github.com/AmmarHussainn/lawcusworkfinal/command"
	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
	"github.com/AmmarHussainn/lawcusworkfinal/query"
)

type facadeTokenStub struct {
	refreshCalls int
}

func (s *facadeTokenStub) Connect(context.Context, core.ConnectRequest) (core.BeginAuthResponse, error) {
	return core.BeginAuthResponse{URL: "https://auth.example.com/authorize"}, nil
}

func (s *facadeTokenStub) CompleteCallback(context.Context, core.CompleteAuthRequest) (core.TokenStatus, error) {
	return core.TokenStatus{State: core.TokenStateValid}, nil
}

func (s *facadeTokenStub) ExchangeAuthorizationCode(context.Context, core.ExchangeRequest) (core.TokenStatus, error) {
	return core.TokenStatus{State: core.TokenStateValid}, nil
}

func (s *facadeTokenStub) Refresh(context.Context) (core.TokenStatus, error) {
	s.refreshCalls++
	return core.TokenStatus{State: core.TokenStateValid}, nil
}

func (s *facadeTokenStub) Logout(context.Context) error {
	return nil
}

func (s *facadeTokenStub) Status() core.TokenStatus {
	return core.TokenStatus{State: core.TokenStateAbsent}
}

type facadeLeadStub struct {
	created []string
}

func (s *facadeLeadStub) Create(_ context.Context, input leads.CreateLeadInput) (leads.Lead, error) {
	s.created = append(s.created, input.Name)
	return leads.Lead{ID: "lead-1", Name: input.Name}, nil
}

func (s *facadeLeadStub) Update(_ context.Context, id string, _ leads.UpdateLeadInput) (leads.Lead, error) {
	return leads.Lead{ID: id}, nil
}

func (s *facadeLeadStub) Delete(context.Context, string) error {
	return nil
}

func (s *facadeLeadStub) Get(_ context.Context, id string) (leads.Lead, error) {
	return leads.Lead{ID: id}, nil
}

func (s *facadeLeadStub) List(context.Context, leads.ListLeadsRequest) ([]leads.Lead, error) {
	return []leads.Lead{}, nil
}

func TestNewFacadeRequiresServices(t *testing.T) {
	if _, err := NewFacade(nil, &facadeLeadStub{}); err == nil {
		t.Fatalf("expected error for nil service")
	}
	if _, err := NewFacade(&facadeTokenStub{}, nil); err == nil {
		t.Fatalf("expected error for nil lead service")
	}
}

func TestFacadeWiresCommandsAndQueries(t *testing.T) {
	tokenStub := &facadeTokenStub{}
	leadStub := &facadeLeadStub{}
	facade, err := NewFacade(tokenStub, leadStub)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Connect == nil || commands.CompleteCallback == nil || commands.ExchangeCode == nil ||
		commands.Refresh == nil || commands.Logout == nil ||
		commands.CreateLead == nil || commands.UpdateLead == nil || commands.DeleteLead == nil {
		t.Fatalf("expected all commands wired, got %#v", commands)
	}
	queries := facade.Queries()
	if queries.TokenStatus == nil || queries.GetLead == nil || queries.ListLeads == nil {
		t.Fatalf("expected all queries wired, got %#v", queries)
	}

	ctx := context.Background()
	if err := commands.Refresh.Execute(ctx, command.RefreshMessage{}); err != nil {
		t.Fatalf("refresh command: %v", err)
	}
	if tokenStub.refreshCalls != 1 {
		t.Fatalf("expected refresh delegation, got %d calls", tokenStub.refreshCalls)
	}

	if err := commands.CreateLead.Execute(ctx, command.CreateLeadMessage{
		Input: leads.CreateLeadInput{Name: "Ada Lovelace"},
	}); err != nil {
		t.Fatalf("create lead command: %v", err)
	}
	if len(leadStub.created) != 1 || leadStub.created[0] != "Ada Lovelace" {
		t.Fatalf("expected lead delegation, got %#v", leadStub.created)
	}

	status, err := queries.TokenStatus.Query(ctx, query.TokenStatusMessage{})
	if err != nil {
		t.Fatalf("token status query: %v", err)
	}
	if status.State != core.TokenStateAbsent {
		t.Fatalf("unexpected status %#v", status)
	}
}
