package core

import (
	"strings"
	"time"
)

const (
	DefaultExpiringSoonWindow = 5 * time.Minute
	DefaultRefreshLeadWindow  = 5 * time.Minute
)

// CredentialTokenState captures access/refresh lifecycle flags derived from a
// credential record.
type CredentialTokenState struct {
	ExpiresAt       time.Time
	HasAccessToken  bool
	HasRefreshToken bool
	IsExpired       bool
	IsExpiringSoon  bool
}

// ResolveCredentialTokenState evaluates expiry and refreshability flags.
func ResolveCredentialTokenState(now time.Time, credential Credential, expiringSoonWindow time.Duration) CredentialTokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if expiringSoonWindow <= 0 {
		expiringSoonWindow = DefaultExpiringSoonWindow
	}

	state := CredentialTokenState{
		HasAccessToken:  strings.TrimSpace(credential.AccessToken) != "",
		HasRefreshToken: strings.TrimSpace(credential.RefreshToken) != "",
	}
	if credential.ExpiresAt.IsZero() {
		state.IsExpired = true
		return state
	}
	expiresAt := credential.ExpiresAt.UTC()
	state.ExpiresAt = expiresAt
	if !expiresAt.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !expiresAt.After(now.Add(expiringSoonWindow))
	return state
}

// ShouldScheduleRefresh reports whether a proactive refresh should be
// enqueued before the record crosses the expiry boundary.
func ShouldScheduleRefresh(now time.Time, state CredentialTokenState, refreshLeadWindow time.Duration) bool {
	if !state.HasRefreshToken {
		return false
	}
	if state.IsExpired {
		return true
	}
	if state.ExpiresAt.IsZero() {
		return false
	}
	if refreshLeadWindow <= 0 {
		refreshLeadWindow = DefaultRefreshLeadWindow
	}
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	return !state.ExpiresAt.UTC().After(now.Add(refreshLeadWindow))
}
