package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
)

var (
	_ gocmd.Querier[TokenStatusMessage, core.TokenStatus] = (*TokenStatusQuery)(nil)
	_ gocmd.Querier[GetLeadMessage, leads.Lead]           = (*GetLeadQuery)(nil)
	_ gocmd.Querier[ListLeadsMessage, []leads.Lead]       = (*ListLeadsQuery)(nil)
)
