// Package query exposes the bridge's read operations as go-command query
// messages.
package query

import (
	"strings"
)

const (
	TypeTokenStatus = "lawcus.query.token.status"
	TypeGetLead     = "lawcus.query.lead.get"
	TypeListLeads   = "lawcus.query.lead.list"
)

type TokenStatusMessage struct{}

func (TokenStatusMessage) Type() string { return TypeTokenStatus }

func (TokenStatusMessage) Validate() error { return nil }

type GetLeadMessage struct {
	LeadID string
}

func (GetLeadMessage) Type() string { return TypeGetLead }

func (m GetLeadMessage) Validate() error {
	if strings.TrimSpace(m.LeadID) == "" {
		return queryValidationError("lead_id", "lead id is required")
	}
	return nil
}

type ListLeadsMessage struct {
	Page    int
	PerPage int
}

func (ListLeadsMessage) Type() string { return TypeListLeads }

func (m ListLeadsMessage) Validate() error {
	if m.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	return nil
}
