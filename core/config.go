package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultExpiryMargin is subtracted from the provider-reported token
	// lifetime so the token is treated as expired strictly before the
	// provider invalidates it. Deployments that observed the 60s variant set
	// Tokens.ExpiryMargin explicitly.
	DefaultExpiryMargin = 5 * time.Minute

	// DefaultFallbackTokenTTL applies when the provider omits expires_in.
	DefaultFallbackTokenTTL = time.Hour

	DefaultAPIRequestTimeout   = 10 * time.Second
	DefaultTokenRequestTimeout = 30 * time.Second
)

type OAuthConfig struct {
	ClientID     string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string   `koanf:"client_secret" mapstructure:"client_secret"`
	AuthURL      string   `koanf:"auth_url" mapstructure:"auth_url"`
	TokenURL     string   `koanf:"token_url" mapstructure:"token_url"`
	RedirectURI  string   `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	Scopes       []string `koanf:"scopes" mapstructure:"scopes"`
}

type TokenConfig struct {
	ExpiryMargin       time.Duration `koanf:"expiry_margin" mapstructure:"expiry_margin"`
	FallbackTTL        time.Duration `koanf:"fallback_ttl" mapstructure:"fallback_ttl"`
	RefreshMaxAttempts int           `koanf:"refresh_max_attempts" mapstructure:"refresh_max_attempts"`
	RefreshLeadWindow  time.Duration `koanf:"refresh_lead_window" mapstructure:"refresh_lead_window"`
}

type APIConfig struct {
	BaseURL        string        `koanf:"base_url" mapstructure:"base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type StorageConfig struct {
	Path string `koanf:"path" mapstructure:"path"`
}

type ServerConfig struct {
	ListenAddr string `koanf:"listen_addr" mapstructure:"listen_addr"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	OAuth       OAuthConfig   `koanf:"oauth" mapstructure:"oauth"`
	Tokens      TokenConfig   `koanf:"tokens" mapstructure:"tokens"`
	API         APIConfig     `koanf:"api" mapstructure:"api"`
	Storage     StorageConfig `koanf:"storage" mapstructure:"storage"`
	Server      ServerConfig  `koanf:"server" mapstructure:"server"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "lawcus-bridge",
		Tokens: TokenConfig{
			ExpiryMargin:       DefaultExpiryMargin,
			FallbackTTL:        DefaultFallbackTokenTTL,
			RefreshMaxAttempts: defaultRefreshMaxAttempts,
			RefreshLeadWindow:  DefaultRefreshLeadWindow,
		},
		API: APIConfig{
			RequestTimeout: DefaultAPIRequestTimeout,
		},
		Storage: StorageConfig{
			Path: "tokens.json",
		},
		Server: ServerConfig{
			ListenAddr: ":3000",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Tokens.ExpiryMargin < 0 {
		return fmt.Errorf("core: tokens.expiry_margin must not be negative")
	}
	if c.Tokens.FallbackTTL < 0 {
		return fmt.Errorf("core: tokens.fallback_ttl must not be negative")
	}
	return nil
}

func (c Config) expiryMargin() time.Duration {
	if c.Tokens.ExpiryMargin < 0 {
		return DefaultExpiryMargin
	}
	return c.Tokens.ExpiryMargin
}

func (c Config) fallbackTTL() time.Duration {
	if c.Tokens.FallbackTTL <= 0 {
		return DefaultFallbackTokenTTL
	}
	return c.Tokens.FallbackTTL
}
