// Package leads exposes the lead CRUD operations of the CRM's resource API.
// Every call rides the authenticated transport adapter, which handles bearer
// injection and the single unauthorized retry.
package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
)

const defaultRequestTimeout = core.DefaultAPIRequestTimeout

type Lead struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Source    string    `json:"source,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type CreateLeadInput struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Source string `json:"source,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

type UpdateLeadInput struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Source string `json:"source,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

type ListLeadsRequest struct {
	Page    int
	PerPage int
}

type Client struct {
	adapter core.TransportAdapter
	baseURL string
	timeout time.Duration
	logger  core.Logger
}

type Option func(*Client)

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewClient(adapter core.TransportAdapter, baseURL string, options ...Option) (*Client, error) {
	if adapter == nil {
		return nil, fmt.Errorf("leads: transport adapter is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("leads: base url is required")
	}

	client := &Client{
		adapter: adapter,
		baseURL: baseURL,
		timeout: defaultRequestTimeout,
		logger:  glog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(client)
	}
	return client, nil
}

func (c *Client) Create(ctx context.Context, input CreateLeadInput) (Lead, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Lead{}, badInputError("leads: lead name is required")
	}
	body, err := json.Marshal(input)
	if err != nil {
		return Lead{}, fmt.Errorf("leads: encode lead: %w", err)
	}
	return c.doLead(ctx, http.MethodPost, c.baseURL+"/leads", nil, body, http.StatusCreated, http.StatusOK)
}

func (c *Client) Get(ctx context.Context, id string) (Lead, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Lead{}, badInputError("leads: lead id is required")
	}
	return c.doLead(ctx, http.MethodGet, c.leadURL(id), nil, nil, http.StatusOK)
}

func (c *Client) Update(ctx context.Context, id string, input UpdateLeadInput) (Lead, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Lead{}, badInputError("leads: lead id is required")
	}
	body, err := json.Marshal(input)
	if err != nil {
		return Lead{}, fmt.Errorf("leads: encode lead: %w", err)
	}
	return c.doLead(ctx, http.MethodPut, c.leadURL(id), nil, body, http.StatusOK)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return badInputError("leads: lead id is required")
	}
	response, err := c.do(ctx, http.MethodDelete, c.leadURL(id), nil, nil)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusNoContent {
		return c.apiError(response)
	}
	return nil
}

func (c *Client) List(ctx context.Context, req ListLeadsRequest) ([]Lead, error) {
	query := map[string]string{}
	if req.Page > 0 {
		query["page"] = strconv.Itoa(req.Page)
	}
	if req.PerPage > 0 {
		query["per_page"] = strconv.Itoa(req.PerPage)
	}

	response, err := c.do(ctx, http.MethodGet, c.baseURL+"/leads", query, nil)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		return nil, c.apiError(response)
	}

	leads, err := decodeLeadList(response.Body)
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (c *Client) leadURL(id string) string {
	return c.baseURL + "/leads/" + url.PathEscape(id)
}

func (c *Client) doLead(
	ctx context.Context,
	method string,
	requestURL string,
	query map[string]string,
	body []byte,
	acceptedStatuses ...int,
) (Lead, error) {
	response, err := c.do(ctx, method, requestURL, query, body)
	if err != nil {
		return Lead{}, err
	}
	accepted := false
	for _, status := range acceptedStatuses {
		if response.StatusCode == status {
			accepted = true
			break
		}
	}
	if !accepted {
		return Lead{}, c.apiError(response)
	}

	lead := Lead{}
	if len(response.Body) > 0 {
		if err := json.Unmarshal(response.Body, &lead); err != nil {
			return Lead{}, fmt.Errorf("leads: decode lead response: %w", err)
		}
	}
	return lead, nil
}

func (c *Client) do(
	ctx context.Context,
	method string,
	requestURL string,
	query map[string]string,
	body []byte,
) (core.TransportResponse, error) {
	if c == nil || c.adapter == nil {
		return core.TransportResponse{}, fmt.Errorf("leads: client is not configured")
	}

	headers := map[string]string{"Accept": "application/json"}
	if len(body) > 0 {
		headers["Content-Type"] = "application/json"
	}

	response, err := c.adapter.Do(ctx, core.TransportRequest{
		Method:  method,
		URL:     requestURL,
		Query:   query,
		Headers: headers,
		Body:    body,
		Timeout: c.timeout,
	})
	if err != nil {
		c.logger.Warn("lead request failed",
			"method", method,
			"url", requestURL,
			"error", err.Error(),
		)
		return core.TransportResponse{}, err
	}
	c.logger.Debug("lead request completed",
		"method", method,
		"url", requestURL,
		"status_code", response.StatusCode,
	)
	return response, nil
}

func decodeLeadList(body []byte) ([]Lead, error) {
	if len(body) == 0 {
		return []Lead{}, nil
	}

	// Some deployments return a bare array, others wrap it in {"leads": []}.
	var direct []Lead
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct, nil
	}
	var wrapped struct {
		Leads []Lead `json:"leads"`
		Data  []Lead `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("leads: decode lead list: %w", err)
	}
	if wrapped.Leads != nil {
		return wrapped.Leads, nil
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return []Lead{}, nil
}

// apiError preserves the resource API's status and body so callers can
// decide what to do with a rejected request.
func (c *Client) apiError(response core.TransportResponse) error {
	err := newAPIError(response)
	c.logger.Warn("lead api request rejected",
		"status_code", response.StatusCode,
		"error", err.Error(),
	)
	return err
}

func newAPIError(response core.TransportResponse) error {
	category := goerrors.CategoryExternal
	switch {
	case response.StatusCode == http.StatusUnauthorized:
		category = goerrors.CategoryAuth
	case response.StatusCode == http.StatusForbidden:
		category = goerrors.CategoryAuthz
	case response.StatusCode == http.StatusNotFound:
		category = goerrors.CategoryNotFound
	case response.StatusCode >= http.StatusBadRequest && response.StatusCode < http.StatusInternalServerError:
		category = goerrors.CategoryBadInput
	}

	message := fmt.Sprintf("leads: api error (%d %s)", response.StatusCode, http.StatusText(response.StatusCode))
	err := goerrors.New(message, category).
		WithCode(response.StatusCode).
		WithTextCode(apiErrorTextCode(category))
	return err.WithMetadata(map[string]any{
		"status_code": response.StatusCode,
		"body":        string(response.Body),
	})
}

func apiErrorTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryAuth:
		return core.ServiceErrorUnauthenticated
	case goerrors.CategoryAuthz:
		return core.ServiceErrorForbidden
	case goerrors.CategoryBadInput, goerrors.CategoryNotFound:
		return core.ServiceErrorBadInput
	default:
		return core.ServiceErrorTransport
	}
}

func badInputError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithTextCode(core.ServiceErrorBadInput)
}
