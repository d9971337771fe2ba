package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	CredentialPayloadFormatJSONV1 = "credential_json"
	CredentialPayloadVersionV1    = 1
)

// CredentialCodec serializes the credential record for persistence. Decode
// failures surface as corrupt payloads, never as partial records.
type CredentialCodec interface {
	Format() string
	Version() int
	Encode(credential Credential) ([]byte, error)
	Decode(payload []byte) (Credential, error)
}

type JSONCredentialCodec struct{}

func (JSONCredentialCodec) Format() string {
	return CredentialPayloadFormatJSONV1
}

func (JSONCredentialCodec) Version() int {
	return CredentialPayloadVersionV1
}

type jsonCredentialPayload struct {
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	IssuedAt     *time.Time `json:"issued_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func (JSONCredentialCodec) Encode(credential Credential) ([]byte, error) {
	payload := jsonCredentialPayload{
		AccessToken:  strings.TrimSpace(credential.AccessToken),
		RefreshToken: strings.TrimSpace(credential.RefreshToken),
		TokenType:    strings.TrimSpace(credential.TokenType),
		Scope:        strings.TrimSpace(credential.Scope),
		IssuedAt:     timePointer(credential.IssuedAt),
		ExpiresAt:    timePointer(credential.ExpiresAt),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("core: encode credential payload: %w", err)
	}
	return encoded, nil
}

func (JSONCredentialCodec) Decode(payload []byte) (Credential, error) {
	if len(payload) == 0 {
		return Credential{}, fmt.Errorf("%w: payload is empty", ErrCredentialCorrupt)
	}
	decoded := jsonCredentialPayload{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrCredentialCorrupt, err)
	}
	credential := Credential{
		AccessToken:  strings.TrimSpace(decoded.AccessToken),
		RefreshToken: strings.TrimSpace(decoded.RefreshToken),
		TokenType:    normalizeTokenType(decoded.TokenType),
		Scope:        strings.TrimSpace(decoded.Scope),
	}
	if decoded.IssuedAt != nil {
		credential.IssuedAt = decoded.IssuedAt.UTC()
	}
	if decoded.ExpiresAt != nil {
		credential.ExpiresAt = decoded.ExpiresAt.UTC()
	}
	if !credential.Complete() {
		return Credential{}, fmt.Errorf("%w: payload is missing tokens", ErrCredentialCorrupt)
	}
	return credential, nil
}

func timePointer(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	clone := value.UTC()
	return &clone
}
