package lawcus

import (
	"context"
	"fmt"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/leads"
	"github.com/AmmarHussainn/lawcusworkfinal/providers"
	"github.com/AmmarHussainn/lawcusworkfinal/server"
	"github.com/AmmarHussainn/lawcusworkfinal/store"
	"github.com/AmmarHussainn/lawcusworkfinal/transport"
)

// Bridge is the fully composed stack: identity provider, credential store,
// lifecycle service, authenticated transport, lead client, and HTTP surface.
type Bridge struct {
	service    *core.Service
	leads      *leads.Client
	facade     *Facade
	server     *server.Server
	transports *transport.Registry
}

type BridgeOption func(*bridgeBuilder)

type bridgeBuilder struct {
	identity        core.IdentityProvider
	credentialStore core.CredentialStore
	httpClient      transport.HTTPDoer
	logger          core.Logger
	serviceOptions  []core.Option
}

// WithBridgeIdentityProvider overrides the config-built OAuth2 provider.
func WithBridgeIdentityProvider(provider core.IdentityProvider) BridgeOption {
	return func(b *bridgeBuilder) {
		b.identity = provider
	}
}

// WithBridgeCredentialStore overrides the config-built file store, e.g. with
// the SQL-backed store from store/sql.
func WithBridgeCredentialStore(credentialStore core.CredentialStore) BridgeOption {
	return func(b *bridgeBuilder) {
		b.credentialStore = credentialStore
	}
}

// WithBridgeHTTPClient sets the HTTP client the resource transport uses.
func WithBridgeHTTPClient(client transport.HTTPDoer) BridgeOption {
	return func(b *bridgeBuilder) {
		b.httpClient = client
	}
}

func WithBridgeLogger(logger core.Logger) BridgeOption {
	return func(b *bridgeBuilder) {
		b.logger = logger
	}
}

// WithBridgeServiceOptions appends options forwarded to core.Setup.
func WithBridgeServiceOptions(options ...core.Option) BridgeOption {
	return func(b *bridgeBuilder) {
		b.serviceOptions = append(b.serviceOptions, options...)
	}
}

// NewBridge composes the whole stack from configuration. Overrides exist for
// every seam so tests and alternate deployments can swap parts without
// re-wiring the rest.
func NewBridge(cfg Config, options ...BridgeOption) (*Bridge, error) {
	builder := bridgeBuilder{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}
	logger := glog.Ensure(builder.logger)

	// First pass resolves configuration (defaults < loaded < runtime) so the
	// default seams can be built from the final values.
	probe, err := core.Setup(cfg, builder.serviceOptions...)
	if err != nil {
		return nil, err
	}
	resolved := probe.Config()

	identity := builder.identity
	if identity == nil {
		identity, err = providers.NewOAuth2ProviderFromConfig(resolved)
		if err != nil {
			return nil, err
		}
	}
	credentialStore := builder.credentialStore
	if credentialStore == nil {
		credentialStore, err = store.NewFileCredentialStore(resolved.Storage.Path)
		if err != nil {
			return nil, err
		}
	}

	serviceOptions := append([]core.Option{}, builder.serviceOptions...)
	if builder.logger != nil {
		serviceOptions = append(serviceOptions, core.WithLogger(builder.logger))
	}
	serviceOptions = append(serviceOptions,
		core.WithIdentityProvider(identity),
		core.WithCredentialStore(credentialStore),
	)

	service, err := core.Setup(cfg, serviceOptions...)
	if err != nil {
		return nil, err
	}

	restAdapter := transport.NewRESTAdapter(builder.httpClient)
	authenticated := transport.NewAuthenticatedAdapter(restAdapter, service)

	transports := transport.NewRegistry()
	if err := transports.Register(restAdapter); err != nil {
		return nil, err
	}
	if err := transports.Register(authenticated); err != nil {
		return nil, err
	}

	if resolved.API.BaseURL == "" {
		return nil, fmt.Errorf("lawcus: api.base_url is required")
	}
	leadClient, err := leads.NewClient(authenticated, resolved.API.BaseURL,
		leads.WithLogger(logger),
		leads.WithRequestTimeout(resolved.API.RequestTimeout),
	)
	if err != nil {
		return nil, err
	}

	facade, err := NewFacade(service, leadClient)
	if err != nil {
		return nil, err
	}

	httpServer, err := server.New(service, leadClient, server.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &Bridge{
		service:    service,
		leads:      leadClient,
		facade:     facade,
		server:     httpServer,
		transports: transports,
	}, nil
}

// Initialize hydrates the lifecycle service from the credential store.
func (b *Bridge) Initialize(ctx context.Context) error {
	if b == nil || b.service == nil {
		return fmt.Errorf("lawcus: bridge is not configured")
	}
	return b.service.Initialize(ctx)
}

func (b *Bridge) Service() *core.Service {
	if b == nil {
		return nil
	}
	return b.service
}

func (b *Bridge) Leads() *leads.Client {
	if b == nil {
		return nil
	}
	return b.leads
}

func (b *Bridge) Facade() *Facade {
	if b == nil {
		return nil
	}
	return b.facade
}

// Transports exposes the registered transport adapters by kind.
func (b *Bridge) Transports() *transport.Registry {
	if b == nil {
		return nil
	}
	return b.transports
}

func (b *Bridge) Handler() http.Handler {
	if b == nil || b.server == nil {
		return nil
	}
	return b.server.Handler()
}
