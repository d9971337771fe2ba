package transport

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
)

const KindAuthenticatedREST = "authenticated_rest"

// AuthenticatedAdapter decorates a transport adapter with bearer injection
// and the single 401 retry: fetch a token, send, and on an unauthorized
// response refresh once and resend once. The second response is returned
// regardless of outcome.
type AuthenticatedAdapter struct {
	next   core.TransportAdapter
	tokens core.TokenSource
}

func NewAuthenticatedAdapter(next core.TransportAdapter, tokens core.TokenSource) *AuthenticatedAdapter {
	return &AuthenticatedAdapter{
		next:   next,
		tokens: tokens,
	}
}

func (*AuthenticatedAdapter) Kind() string {
	return KindAuthenticatedREST
}

func (a *AuthenticatedAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.next == nil {
		return core.TransportResponse{}, transportError(
			"transport: authenticated adapter requires an inner adapter",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindAuthenticatedREST},
		)
	}
	if a.tokens == nil {
		return core.TransportResponse{}, transportError(
			"transport: authenticated adapter requires a token source",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindAuthenticatedREST},
		)
	}

	// An unauthenticated failure here means the request is never sent; the
	// caller receives that failure directly.
	token, err := a.tokens.AccessToken(ctx)
	if err != nil {
		return core.TransportResponse{}, err
	}

	response, err := a.next.Do(ctx, withBearer(req, token))
	if err != nil {
		return core.TransportResponse{}, err
	}
	if response.StatusCode != http.StatusUnauthorized {
		return response, nil
	}

	// One refresh, one replay. A second unauthorized response is surfaced
	// as-is.
	if _, err := a.tokens.Refresh(ctx); err != nil {
		return core.TransportResponse{}, err
	}
	token, err = a.tokens.AccessToken(ctx)
	if err != nil {
		return core.TransportResponse{}, err
	}
	return a.next.Do(ctx, withBearer(req, token))
}

func withBearer(req core.TransportRequest, token string) core.TransportRequest {
	out := req
	out.Headers = make(map[string]string, len(req.Headers)+1)
	for key, value := range req.Headers {
		out.Headers[key] = value
	}
	out.Headers["Authorization"] = "Bearer " + strings.TrimSpace(token)
	return out
}

var _ core.TransportAdapter = (*AuthenticatedAdapter)(nil)
