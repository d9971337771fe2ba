package query

import (
	"context"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
)

type TokenStatusReader interface {
	Status() core.TokenStatus
}

type LeadReader interface {
	Get(ctx context.Context, id string) (leads.Lead, error)
	List(ctx context.Context, req leads.ListLeadsRequest) ([]leads.Lead, error)
}

type TokenStatusQuery struct {
	reader TokenStatusReader
}

func NewTokenStatusQuery(reader TokenStatusReader) *TokenStatusQuery {
	return &TokenStatusQuery{reader: reader}
}

func (q *TokenStatusQuery) Query(_ context.Context, _ TokenStatusMessage) (core.TokenStatus, error) {
	if q == nil || q.reader == nil {
		return core.TokenStatus{}, queryDependencyError("query: token status reader is required")
	}
	return q.reader.Status(), nil
}

type GetLeadQuery struct {
	reader LeadReader
}

func NewGetLeadQuery(reader LeadReader) *GetLeadQuery {
	return &GetLeadQuery{reader: reader}
}

func (q *GetLeadQuery) Query(ctx context.Context, msg GetLeadMessage) (leads.Lead, error) {
	if q == nil || q.reader == nil {
		return leads.Lead{}, queryDependencyError("query: lead reader is required")
	}
	return q.reader.Get(ctx, msg.LeadID)
}

type ListLeadsQuery struct {
	reader LeadReader
}

func NewListLeadsQuery(reader LeadReader) *ListLeadsQuery {
	return &ListLeadsQuery{reader: reader}
}

func (q *ListLeadsQuery) Query(ctx context.Context, msg ListLeadsMessage) ([]leads.Lead, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: lead reader is required")
	}
	return q.reader.List(ctx, leads.ListLeadsRequest{
		Page:    msg.Page,
		PerPage: msg.PerPage,
	})
}
