package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
)

type TokenMutatingService interface {
	Connect(ctx context.Context, req core.ConnectRequest) (core.BeginAuthResponse, error)
	CompleteCallback(ctx context.Context, req core.CompleteAuthRequest) (core.TokenStatus, error)
	ExchangeAuthorizationCode(ctx context.Context, req core.ExchangeRequest) (core.TokenStatus, error)
	Refresh(ctx context.Context) (core.TokenStatus, error)
	Logout(ctx context.Context) error
}

type LeadMutatingService interface {
	Create(ctx context.Context, input leads.CreateLeadInput) (leads.Lead, error)
	Update(ctx context.Context, id string, input leads.UpdateLeadInput) (leads.Lead, error)
	Delete(ctx context.Context, id string) error
}

type ConnectCommand struct {
	service TokenMutatingService
}

func NewConnectCommand(service TokenMutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.Connect(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteCallbackCommand struct {
	service TokenMutatingService
}

func NewCompleteCallbackCommand(service TokenMutatingService) *CompleteCallbackCommand {
	return &CompleteCallbackCommand{service: service}
}

func (c *CompleteCallbackCommand) Execute(ctx context.Context, msg CompleteCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.CompleteCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ExchangeCodeCommand struct {
	service TokenMutatingService
}

func NewExchangeCodeCommand(service TokenMutatingService) *ExchangeCodeCommand {
	return &ExchangeCodeCommand{service: service}
}

func (c *ExchangeCodeCommand) Execute(ctx context.Context, msg ExchangeCodeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: exchange service is required")
	}
	out, err := c.service.ExchangeAuthorizationCode(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCommand struct {
	service TokenMutatingService
}

func NewRefreshCommand(service TokenMutatingService) *RefreshCommand {
	return &RefreshCommand{service: service}
}

func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	out, err := c.service.Refresh(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type LogoutCommand struct {
	service TokenMutatingService
}

func NewLogoutCommand(service TokenMutatingService) *LogoutCommand {
	return &LogoutCommand{service: service}
}

func (c *LogoutCommand) Execute(ctx context.Context, msg LogoutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: logout service is required")
	}
	return c.service.Logout(ctx)
}

type CreateLeadCommand struct {
	service LeadMutatingService
}

func NewCreateLeadCommand(service LeadMutatingService) *CreateLeadCommand {
	return &CreateLeadCommand{service: service}
}

func (c *CreateLeadCommand) Execute(ctx context.Context, msg CreateLeadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	out, err := c.service.Create(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateLeadCommand struct {
	service LeadMutatingService
}

func NewUpdateLeadCommand(service LeadMutatingService) *UpdateLeadCommand {
	return &UpdateLeadCommand{service: service}
}

func (c *UpdateLeadCommand) Execute(ctx context.Context, msg UpdateLeadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	out, err := c.service.Update(ctx, msg.LeadID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteLeadCommand struct {
	service LeadMutatingService
}

func NewDeleteLeadCommand(service LeadMutatingService) *DeleteLeadCommand {
	return &DeleteLeadCommand{service: service}
}

func (c *DeleteLeadCommand) Execute(ctx context.Context, msg DeleteLeadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	return c.service.Delete(ctx, msg.LeadID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
