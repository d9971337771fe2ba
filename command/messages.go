// Package command exposes the bridge's mutating operations as go-command
// messages so they can run through a dispatcher, a queue, or a CLI with the
// same validation and error envelopes.
package command

import (
	"strings"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
)

const (
	TypeConnect          = "lawcus.command.connect"
	TypeCompleteCallback = "lawcus.command.callback.complete"
	TypeExchangeCode     = "lawcus.command.code.exchange"
	TypeRefresh          = "lawcus.command.refresh"
	TypeLogout           = "lawcus.command.logout"
	TypeCreateLead       = "lawcus.command.lead.create"
	TypeUpdateLead       = "lawcus.command.lead.update"
	TypeDeleteLead       = "lawcus.command.lead.delete"
)

type ConnectMessage struct {
	Request core.ConnectRequest
}

func (ConnectMessage) Type() string { return TypeConnect }

// Validate accepts an empty request: state, scopes, and redirect URI all
// fall back to configuration inside the service.
func (m ConnectMessage) Validate() error {
	return nil
}

type CompleteCallbackMessage struct {
	Request core.CompleteAuthRequest
}

func (CompleteCallbackMessage) Type() string { return TypeCompleteCallback }

func (m CompleteCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	if strings.TrimSpace(m.Request.State) == "" {
		return commandValidationError("state", "state is required")
	}
	return nil
}

type ExchangeCodeMessage struct {
	Request core.ExchangeRequest
}

func (ExchangeCodeMessage) Type() string { return TypeExchangeCode }

func (m ExchangeCodeMessage) Validate() error {
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	return nil
}

type RefreshMessage struct{}

func (RefreshMessage) Type() string { return TypeRefresh }

func (RefreshMessage) Validate() error { return nil }

type LogoutMessage struct{}

func (LogoutMessage) Type() string { return TypeLogout }

func (LogoutMessage) Validate() error { return nil }

type CreateLeadMessage struct {
	Input leads.CreateLeadInput
}

func (CreateLeadMessage) Type() string { return TypeCreateLead }

func (m CreateLeadMessage) Validate() error {
	if strings.TrimSpace(m.Input.Name) == "" {
		return commandValidationError("name", "lead name is required")
	}
	return nil
}

type UpdateLeadMessage struct {
	LeadID string
	Input  leads.UpdateLeadInput
}

func (UpdateLeadMessage) Type() string { return TypeUpdateLead }

func (m UpdateLeadMessage) Validate() error {
	if strings.TrimSpace(m.LeadID) == "" {
		return commandValidationError("lead_id", "lead id is required")
	}
	return nil
}

type DeleteLeadMessage struct {
	LeadID string
}

func (DeleteLeadMessage) Type() string { return TypeDeleteLead }

func (m DeleteLeadMessage) Validate() error {
	if strings.TrimSpace(m.LeadID) == "" {
		return commandValidationError("lead_id", "lead id is required")
	}
	return nil
}
