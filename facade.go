package lawcus

import (
	"fmt"

	"github.com/AmmarHussainn/lawcusworkfinal/command"
	"github.com/AmmarHussainn/lawcusworkfinal/query"
)

// CommandQueryService is the slice of the lifecycle service the command and
// query buses need. *core.Service satisfies it.
type CommandQueryService interface {
	command.TokenMutatingService
	query.TokenStatusReader
}

// LeadCommandQueryService is the lead surface the buses need. *leads.Client
// satisfies it.
type LeadCommandQueryService interface {
	command.LeadMutatingService
	query.LeadReader
}

type Commands struct {
	Connect          *command.ConnectCommand
	CompleteCallback *command.CompleteCallbackCommand
	ExchangeCode     *command.ExchangeCodeCommand
	Refresh          *command.RefreshCommand
	Logout           *command.LogoutCommand
	CreateLead       *command.CreateLeadCommand
	UpdateLead       *command.UpdateLeadCommand
	DeleteLead       *command.DeleteLeadCommand
}

type Queries struct {
	TokenStatus *query.TokenStatusQuery
	GetLead     *query.GetLeadQuery
	ListLeads   *query.ListLeadsQuery
}

// Facade bundles the pre-wired command and query handlers for a single
// lifecycle service and lead client pair.
type Facade struct {
	service  CommandQueryService
	leads    LeadCommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService, leadService LeadCommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("lawcus: command/query service is required")
	}
	if leadService == nil {
		return nil, fmt.Errorf("lawcus: lead service is required")
	}

	facade := &Facade{service: service, leads: leadService}
	facade.commands = Commands{
		Connect:          command.NewConnectCommand(service),
		CompleteCallback: command.NewCompleteCallbackCommand(service),
		ExchangeCode:     command.NewExchangeCodeCommand(service),
		Refresh:          command.NewRefreshCommand(service),
		Logout:           command.NewLogoutCommand(service),
		CreateLead:       command.NewCreateLeadCommand(leadService),
		UpdateLead:       command.NewUpdateLeadCommand(leadService),
		DeleteLead:       command.NewDeleteLeadCommand(leadService),
	}
	facade.queries = Queries{
		TokenStatus: query.NewTokenStatusQuery(service),
		GetLead:     query.NewGetLeadQuery(leadService),
		ListLeads:   query.NewListLeadsQuery(leadService),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func (f *Facade) Leads() LeadCommandQueryService {
	if f == nil {
		return nil
	}
	return f.leads
}
