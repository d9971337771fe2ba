// Package server exposes the bridge over HTTP: the OAuth handshake routes,
// token status, and the lead CRUD surface. Handlers stay thin; every decision
// about token state lives in core and every API call rides the authenticated
// transport.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
)

const defaultMaxRequestBodyBytes = 10 << 20

// TokenService is the slice of the lifecycle service the HTTP surface needs.
type TokenService interface {
	Connect(ctx context.Context, req core.ConnectRequest) (core.BeginAuthResponse, error)
	CompleteCallback(ctx context.Context, req core.CompleteAuthRequest) (core.TokenStatus, error)
	ExchangeAuthorizationCode(ctx context.Context, req core.ExchangeRequest) (core.TokenStatus, error)
	Refresh(ctx context.Context) (core.TokenStatus, error)
	Logout(ctx context.Context) error
	Status() core.TokenStatus
}

// LeadService is the lead CRUD surface; *leads.Client satisfies it.
type LeadService interface {
	Create(ctx context.Context, input leads.CreateLeadInput) (leads.Lead, error)
	Get(ctx context.Context, id string) (leads.Lead, error)
	List(ctx context.Context, req leads.ListLeadsRequest) ([]leads.Lead, error)
	Update(ctx context.Context, id string, input leads.UpdateLeadInput) (leads.Lead, error)
	Delete(ctx context.Context, id string) error
}

type Server struct {
	tokens       TokenService
	leads        LeadService
	logger       core.Logger
	router       *httprouter.Router
	maxBodyBytes int64
}

type Option func(*Server)

func WithLogger(logger core.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMaxRequestBodyBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxBodyBytes = limit
		}
	}
}

func New(tokens TokenService, leadService LeadService, options ...Option) (*Server, error) {
	if tokens == nil {
		return nil, fmt.Errorf("server: token service is required")
	}
	if leadService == nil {
		return nil, fmt.Errorf("server: lead service is required")
	}

	srv := &Server{
		tokens:       tokens,
		leads:        leadService,
		logger:       glog.Nop(),
		maxBodyBytes: defaultMaxRequestBodyBytes,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(srv)
	}
	srv.logger = glog.Ensure(srv.logger)
	srv.router = srv.buildRouter()
	return srv, nil
}

// Handler returns the routable HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *httprouter.Router {
	router := httprouter.New()

	router.GET("/", s.handleIndex)
	router.GET("/auth/login", s.handleAuthLogin)
	router.GET("/auth/callback", s.handleAuthCallback)
	router.POST("/auth/exchange-code", s.handleExchangeCode)
	router.GET("/auth/status", s.handleAuthStatus)
	router.POST("/auth/refresh", s.handleRefresh)
	router.POST("/auth/logout", s.handleLogout)

	router.POST("/api/leads", s.handleCreateLead)
	router.GET("/api/leads", s.handleListLeads)
	router.GET("/api/leads/:id", s.handleGetLead)
	router.PUT("/api/leads/:id", s.handleUpdateLead)
	router.DELETE("/api/leads/:id", s.handleDeleteLead)

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorPayload(w, http.StatusNotFound, "endpoint not found", core.ServiceErrorBadInput)
	})
	return router
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "lawcus-bridge",
		"description": "CRM API bridge with OAuth 2.0 authentication",
		"endpoints": map[string]any{
			"auth": map[string]string{
				"GET /auth/login":          "Get the OAuth authorization URL",
				"GET /auth/callback":       "Handle the OAuth callback",
				"POST /auth/exchange-code": "Exchange a pasted authorization code",
				"GET /auth/status":         "Check authentication status",
				"POST /auth/refresh":       "Force a token refresh",
				"POST /auth/logout":        "Clear stored tokens",
			},
			"leads": map[string]string{
				"POST /api/leads":       "Create a lead",
				"GET /api/leads":        "List leads",
				"GET /api/leads/:id":    "Get a lead",
				"PUT /api/leads/:id":    "Update a lead",
				"DELETE /api/leads/:id": "Delete a lead",
			},
		},
	})
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	response, err := s.tokens.Connect(r.Context(), core.ConnectRequest{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"auth_url": response.URL,
		"state":    response.State,
		"message":  "visit this URL to authorize the application",
	})
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		writeErrorPayload(w, http.StatusBadRequest, "authorization code not provided", core.ServiceErrorBadInput)
		return
	}

	status, err := s.tokens.CompleteCallback(r.Context(), core.CompleteAuthRequest{
		Code:  code,
		State: strings.TrimSpace(query.Get("state")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "authentication successful",
		"status":  statusPayload(status),
	})
}

func (s *Server) handleExchangeCode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := s.decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		writeErrorPayload(w, http.StatusBadRequest, "authorization code is required in request body", core.ServiceErrorBadInput)
		return
	}

	status, err := s.tokens.ExchangeAuthorizationCode(r.Context(), core.ExchangeRequest{
		Code:        body.Code,
		RedirectURI: body.RedirectURI,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "authentication successful",
		"status":  statusPayload(status),
	})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  statusPayload(s.tokens.Status()),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status, err := s.tokens.Refresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  statusPayload(status),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.tokens.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out successfully",
	})
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input leads.CreateLeadInput
	if err := s.decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	lead, err := s.leads.Create(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    lead,
		"message": "lead created successfully",
	})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, err := listRequestFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.leads.List(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	lead, err := s.leads.Get(r.Context(), params.ByName("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    lead,
	})
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var input leads.UpdateLeadInput
	if err := s.decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	lead, err := s.leads.Update(r.Context(), params.ByName("id"), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    lead,
		"message": "lead updated successfully",
	})
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if err := s.leads.Delete(r.Context(), params.ByName("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "lead deleted successfully",
	})
}

func (s *Server) decodeBody(r *http.Request, target any) error {
	limit := s.maxBodyBytes
	if limit <= 0 {
		limit = defaultMaxRequestBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "server: read request body failed").
			WithTextCode(core.ServiceErrorBadInput)
	}
	if int64(len(body)) > limit {
		return goerrors.New("server: request body too large", goerrors.CategoryBadInput).
			WithCode(http.StatusRequestEntityTooLarge).
			WithTextCode(core.ServiceErrorBadInput)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "server: request body is not valid JSON").
			WithTextCode(core.ServiceErrorBadInput)
	}
	return nil
}

func listRequestFromQuery(r *http.Request) (leads.ListLeadsRequest, error) {
	req := leads.ListLeadsRequest{}
	query := r.URL.Query()
	for key, target := range map[string]*int{
		"page":     &req.Page,
		"per_page": &req.PerPage,
	} {
		raw := strings.TrimSpace(query.Get(key))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return leads.ListLeadsRequest{}, goerrors.New(
				fmt.Sprintf("server: query parameter %q must be a non-negative integer", key),
				goerrors.CategoryBadInput,
			).WithTextCode(core.ServiceErrorBadInput)
		}
		*target = value
	}
	return req, nil
}

func statusPayload(status core.TokenStatus) map[string]any {
	payload := map[string]any{
		"state":             string(status.State),
		"has_refresh_token": status.HasRefreshToken,
	}
	if status.TokenType != "" {
		payload["token_type"] = status.TokenType
	}
	if status.Scope != "" {
		payload["scope"] = status.Scope
	}
	if !status.IssuedAt.IsZero() {
		payload["issued_at"] = status.IssuedAt.UTC().Format(time.RFC3339)
	}
	if !status.ExpiresAt.IsZero() {
		payload["expires_at"] = status.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, textCode := errorEnvelope(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}
	writeErrorPayload(w, status, message, textCode)
}

func errorEnvelope(err error) (int, string, string) {
	if err == nil {
		return http.StatusInternalServerError, "internal server error", core.ServiceErrorInternal
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return http.StatusInternalServerError, "internal server error", core.ServiceErrorInternal
	}

	status := richErr.Code
	if status < http.StatusBadRequest || status > 599 {
		status = categoryHTTPStatus(richErr.Category)
	}
	textCode := strings.TrimSpace(richErr.TextCode)
	if textCode == "" {
		textCode = core.ServiceErrorInternal
	}
	message := strings.TrimSpace(richErr.Message)
	if message == "" {
		message = "internal server error"
	}
	return status, message, textCode
}

func categoryHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeErrorPayload(w http.ResponseWriter, status int, message string, textCode string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error": map[string]any{
			"message":   message,
			"text_code": textCode,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
