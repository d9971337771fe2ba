package core

import (
	"strings"
	"time"
)

// TokenState is the lifecycle state derived from the credential record plus
// the refresh-in-progress flag; it is never stored explicitly.
type TokenState string

const (
	TokenStateAbsent     TokenState = "absent"
	TokenStateValid      TokenState = "valid"
	TokenStateExpired    TokenState = "expired"
	TokenStateRefreshing TokenState = "refreshing"
)

// Credential is the sole persisted entity: the service-account token set
// issued by the CRM's identity provider. A record is either absent or
// complete; a usable record always carries both tokens.
type Credential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Complete reports whether the record carries both tokens. Partial records
// are never installed; a refresh failure clears the record wholesale rather
// than leaving an access token with no way to renew it.
func (c Credential) Complete() bool {
	return strings.TrimSpace(c.AccessToken) != "" && strings.TrimSpace(c.RefreshToken) != ""
}

// Expired reports whether the record should be treated as expired at now.
// ExpiresAt already includes the configured safety margin, so this boundary
// is strictly earlier than the provider's. A record with no expiry is
// expired.
func (c Credential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return !c.ExpiresAt.After(now.UTC())
}

// TokenGrant is the identity provider's token endpoint response, normalized.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int64
}

type ConnectRequest struct {
	State       string
	RedirectURI string
	Scopes      []string
	Metadata    map[string]any
}

type BeginAuthResponse struct {
	URL      string
	State    string
	Scopes   []string
	Metadata map[string]any
}

type ExchangeRequest struct {
	Code        string
	RedirectURI string
}

type CompleteAuthRequest struct {
	Code        string
	State       string
	RedirectURI string
	Metadata    map[string]any
}

// TokenStatus is the externally visible snapshot of the lifecycle state,
// with the tokens themselves redacted.
type TokenStatus struct {
	State           TokenState
	TokenType       string
	Scope           string
	IssuedAt        time.Time
	ExpiresAt       time.Time
	HasRefreshToken bool
}

func normalizeScopes(input []string) []string {
	if len(input) == 0 {
		return []string{}
	}
	values := make([]string, 0, len(input))
	seen := map[string]struct{}{}
	for _, value := range input {
		normalized := strings.TrimSpace(value)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		values = append(values, normalized)
	}
	return values
}

func normalizeTokenType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "bearer"
	}
	return normalized
}
