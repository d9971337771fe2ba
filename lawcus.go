package lawcus

import "github.com/AmmarHussainn/lawcusworkfinal/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Credential = core.Credential
type CredentialStore = core.CredentialStore
type CredentialCodec = core.CredentialCodec
type IdentityProvider = core.IdentityProvider
type OAuthStateStore = core.OAuthStateStore
type RefreshBackoffScheduler = core.RefreshBackoffScheduler
type TokenSource = core.TokenSource
type TransportAdapter = core.TransportAdapter

type TokenState = core.TokenState
type TokenStatus = core.TokenStatus
type TokenGrant = core.TokenGrant

type ConnectRequest = core.ConnectRequest
type BeginAuthResponse = core.BeginAuthResponse
type ExchangeRequest = core.ExchangeRequest
type CompleteAuthRequest = core.CompleteAuthRequest

const (
	TokenStateAbsent     = core.TokenStateAbsent
	TokenStateValid      = core.TokenStateValid
	TokenStateExpired    = core.TokenStateExpired
	TokenStateRefreshing = core.TokenStateRefreshing
)

var (
	WithLogger                  = core.WithLogger
	WithLoggerProvider          = core.WithLoggerProvider
	WithMetricsRecorder         = core.WithMetricsRecorder
	WithErrorFactory            = core.WithErrorFactory
	WithErrorMapper             = core.WithErrorMapper
	WithConfigProvider          = core.WithConfigProvider
	WithOptionsResolver         = core.WithOptionsResolver
	WithIdentityProvider        = core.WithIdentityProvider
	WithCredentialStore         = core.WithCredentialStore
	WithOAuthStateStore         = core.WithOAuthStateStore
	WithRefreshBackoffScheduler = core.WithRefreshBackoffScheduler
	WithJobEnqueuer             = core.WithJobEnqueuer
	WithCredentialCodec         = core.WithCredentialCodec
	WithNowFunc                 = core.WithNowFunc
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
