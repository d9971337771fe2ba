package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/sync/singleflight"
)

const refreshSingleflightKey = "credential-refresh"

// Service owns the credential record and the transitions between token
// states. All reads and writes of the record go through it; adapters never
// touch the store or the identity provider directly.
type Service struct {
	config                  Config
	logger                  Logger
	loggerProvider          LoggerProvider
	metricsRecorder         MetricsRecorder
	errorFactory            ErrorFactory
	errorMapper             ErrorMapper
	configProvider          ConfigProvider
	optionsResolver         OptionsResolver
	identity                IdentityProvider
	credentialStore         CredentialStore
	oauthStateStore         OAuthStateStore
	refreshBackoffScheduler RefreshBackoffScheduler
	jobEnqueuer             JobEnqueuer
	credentialCodec         CredentialCodec
	now                     func() time.Time

	mu         sync.Mutex
	credential Credential
	present    bool
	refreshing bool

	refreshGroup singleflight.Group
}

type ServiceDependencies struct {
	Logger           Logger
	LoggerProvider   LoggerProvider
	MetricsRecorder  MetricsRecorder
	ErrorFactory     ErrorFactory
	ErrorMapper      ErrorMapper
	ConfigProvider   ConfigProvider
	OptionsResolver  OptionsResolver
	Identity         IdentityProvider
	CredentialStore  CredentialStore
	OAuthStateStore  OAuthStateStore
	RefreshScheduler RefreshBackoffScheduler
	JobEnqueuer      JobEnqueuer
	CredentialCodec  CredentialCodec
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("lawcus", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("lawcus"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.oauthStateStore == nil {
		builder.oauthStateStore = NewMemoryOAuthStateStore(defaultOAuthStateTTL)
	}
	if builder.refreshScheduler == nil {
		builder.refreshScheduler = ExponentialBackoffScheduler{
			Initial: defaultRefreshInitialBackoff,
			Max:     defaultRefreshMaxBackoff,
		}
	}
	if builder.credentialStore == nil {
		builder.credentialStore = NewMemoryCredentialStore()
	}
	if builder.credentialCodec == nil {
		builder.credentialCodec = JSONCredentialCodec{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:                  finalConfig,
		logger:                  logger,
		loggerProvider:          provider,
		metricsRecorder:         builder.metricsRecorder,
		errorFactory:            builder.errorFactory,
		errorMapper:             builder.errorMapper,
		configProvider:          builder.configProvider,
		optionsResolver:         builder.optionsResolver,
		identity:                builder.identity,
		credentialStore:         builder.credentialStore,
		oauthStateStore:         builder.oauthStateStore,
		refreshBackoffScheduler: builder.refreshScheduler,
		jobEnqueuer:             builder.jobEnqueuer,
		credentialCodec:         builder.credentialCodec,
		now:                     builder.now,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:           s.logger,
		LoggerProvider:   s.loggerProvider,
		MetricsRecorder:  s.metricsRecorder,
		ErrorFactory:     s.errorFactory,
		ErrorMapper:      s.errorMapper,
		ConfigProvider:   s.configProvider,
		OptionsResolver:  s.optionsResolver,
		Identity:         s.identity,
		CredentialStore:  s.credentialStore,
		OAuthStateStore:  s.oauthStateStore,
		RefreshScheduler: s.refreshBackoffScheduler,
		JobEnqueuer:      s.jobEnqueuer,
		CredentialCodec:  s.credentialCodec,
	}
}

// Initialize hydrates the in-memory record from the credential store. A
// missing record is the normal first-run state; a corrupt payload is logged,
// discarded, and treated the same way.
func (s *Service) Initialize(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["token_state"] = string(s.TokenState())
		s.observeOperation(ctx, startedAt, "initialize", err, fields)
	}()

	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if s.credentialStore == nil {
		return nil
	}

	stored, loadErr := s.credentialStore.Load(ctx)
	switch {
	case loadErr == nil:
	case errors.Is(loadErr, ErrCredentialNotFound):
		s.logInfo(ctx, "no stored credential; starting unauthenticated", nil)
		return nil
	case errors.Is(loadErr, ErrCredentialCorrupt):
		s.logWarn(ctx, "stored credential payload is corrupt; discarding", map[string]any{
			"error": loadErr.Error(),
		})
		if clearErr := s.credentialStore.Clear(ctx); clearErr != nil {
			s.logWarn(ctx, "discard of corrupt credential failed", map[string]any{
				"error": clearErr.Error(),
			})
		}
		return nil
	default:
		err = goerrors.Wrap(loadErr, goerrors.CategoryOperation, "core: load stored credential failed").
			WithTextCode(ServiceErrorStorage)
		return err
	}

	if !stored.Complete() {
		s.logWarn(ctx, "stored credential is incomplete; discarding", nil)
		if clearErr := s.credentialStore.Clear(ctx); clearErr != nil {
			s.logWarn(ctx, "discard of incomplete credential failed", map[string]any{
				"error": clearErr.Error(),
			})
		}
		return nil
	}

	s.installCredential(stored)
	return nil
}

// Connect begins the authorization round-trip: it builds the provider's
// consent URL and records the state parameter the callback must echo.
func (s *Service) Connect(ctx context.Context, req ConnectRequest) (response BeginAuthResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	if s == nil {
		return BeginAuthResponse{}, fmt.Errorf("core: service is nil")
	}
	if s.identity == nil {
		err = s.mapError(fmt.Errorf("core: identity provider is not configured"))
		return BeginAuthResponse{}, err
	}

	state := strings.TrimSpace(req.State)
	if state == "" {
		generated, generateErr := generateOAuthState()
		if generateErr != nil {
			err = s.mapError(generateErr)
			return BeginAuthResponse{}, err
		}
		state = generated
	}

	scopes := normalizeScopes(req.Scopes)
	if len(scopes) == 0 {
		scopes = normalizeScopes(s.config.OAuth.Scopes)
	}
	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		redirectURI = strings.TrimSpace(s.config.OAuth.RedirectURI)
	}

	authURL, err := s.identity.AuthorizationURL(state, redirectURI, scopes)
	if err != nil {
		err = s.mapError(err)
		return BeginAuthResponse{}, err
	}

	if s.oauthStateStore != nil {
		saveErr := s.oauthStateStore.Save(ctx, OAuthStateRecord{
			State:       state,
			RedirectURI: redirectURI,
			Scopes:      scopes,
			Metadata:    copyAnyMap(req.Metadata),
			CreatedAt:   time.Now().UTC(),
		})
		if saveErr != nil {
			err = s.mapError(saveErr)
			return BeginAuthResponse{}, err
		}
	}

	response = BeginAuthResponse{
		URL:      authURL,
		State:    state,
		Scopes:   scopes,
		Metadata: copyAnyMap(req.Metadata),
	}
	return response, nil
}

// CompleteCallback validates the state echoed by the provider and exchanges
// the authorization code for the first credential record.
func (s *Service) CompleteCallback(ctx context.Context, req CompleteAuthRequest) (status TokenStatus, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["token_state"] = string(status.State)
		s.observeOperation(ctx, startedAt, "complete_callback", err, fields)
	}()

	if s == nil {
		return TokenStatus{}, fmt.Errorf("core: service is nil")
	}

	record, err := s.validateOAuthCallbackState(ctx, req)
	if err != nil {
		err = s.mapError(err)
		return TokenStatus{}, err
	}

	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		redirectURI = strings.TrimSpace(record.RedirectURI)
	}

	status, err = s.ExchangeAuthorizationCode(ctx, ExchangeRequest{
		Code:        req.Code,
		RedirectURI: redirectURI,
	})
	return status, err
}

func (s *Service) validateOAuthCallbackState(ctx context.Context, req CompleteAuthRequest) (OAuthStateRecord, error) {
	if s == nil || s.oauthStateStore == nil {
		return OAuthStateRecord{}, nil
	}
	state := strings.TrimSpace(req.State)
	if state == "" {
		return OAuthStateRecord{}, fmt.Errorf("core: oauth callback state is required")
	}

	record, err := s.oauthStateStore.Consume(ctx, state)
	if err != nil {
		return OAuthStateRecord{}, err
	}

	savedRedirect := strings.TrimSpace(record.RedirectURI)
	requestRedirect := strings.TrimSpace(req.RedirectURI)
	if savedRedirect != "" && requestRedirect != "" && savedRedirect != requestRedirect {
		return OAuthStateRecord{}, fmt.Errorf("core: oauth callback state redirect mismatch")
	}
	return record, nil
}

// ExchangeAuthorizationCode trades a one-time code for a credential record
// and installs it, replacing whatever record existed before. Any token state
// is a legal starting point.
func (s *Service) ExchangeAuthorizationCode(ctx context.Context, req ExchangeRequest) (status TokenStatus, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["token_state"] = string(status.State)
		s.observeOperation(ctx, startedAt, "exchange_authorization_code", err, fields)
	}()

	if s == nil {
		return TokenStatus{}, fmt.Errorf("core: service is nil")
	}
	if s.identity == nil {
		err = s.mapError(fmt.Errorf("core: identity provider is not configured"))
		return TokenStatus{}, err
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		err = s.mapError(fmt.Errorf("core: authorization code is required"))
		return TokenStatus{}, err
	}
	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		redirectURI = strings.TrimSpace(s.config.OAuth.RedirectURI)
	}

	grant, exchangeErr := s.identity.Exchange(ctx, code, redirectURI)
	if exchangeErr != nil {
		err = goerrors.Wrap(exchangeErr, goerrors.CategoryExternal, "core: authorization code exchange failed").
			WithTextCode(ServiceErrorExchangeFailed)
		return TokenStatus{}, err
	}
	if strings.TrimSpace(grant.AccessToken) == "" || strings.TrimSpace(grant.RefreshToken) == "" {
		err = s.errorFactory("core: token grant is missing tokens", goerrors.CategoryExternal).
			WithTextCode(ServiceErrorExchangeFailed)
		return TokenStatus{}, err
	}

	credential := s.credentialFromGrant(grant, "")
	s.installCredential(credential)
	s.persistCredential(ctx, credential)

	status = s.Status()
	return status, nil
}

// AccessToken returns a token that is valid at call time. An expired record
// triggers a refresh; an absent record fails fast without touching the
// provider.
func (s *Service) AccessToken(ctx context.Context) (token string, err error) {
	if s == nil {
		return "", fmt.Errorf("core: service is nil")
	}

	credential, present := s.snapshotCredential()
	if !present {
		return "", s.unauthenticatedError()
	}
	if !credential.Expired(s.nowUTC()) {
		return credential.AccessToken, nil
	}

	if _, err = s.Refresh(ctx); err != nil {
		return "", err
	}

	credential, present = s.snapshotCredential()
	if !present {
		return "", s.unauthenticatedError()
	}
	return credential.AccessToken, nil
}

// Refresh renews the credential record using the stored refresh token.
// Concurrent callers join the in-flight attempt and share its outcome. A
// refresh the provider rejects clears the record in memory and in the store;
// the caller must re-authorize. A transport fault leaves the record in place
// and surfaces as a transport error.
func (s *Service) Refresh(ctx context.Context) (status TokenStatus, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["token_state"] = string(s.TokenState())
		s.observeOperation(ctx, startedAt, "refresh", err, fields)
	}()

	if s == nil {
		return TokenStatus{}, fmt.Errorf("core: service is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// The flight is shared: once the exchange starts, it must complete and
	// update the record no matter which caller stops waiting. Detach it from
	// the initiating context so one cancelled request cannot abort the
	// refresh for everyone joined; the provider applies its own timeout.
	flightCtx := context.WithoutCancel(ctx)
	result, refreshErr, _ := s.refreshGroup.Do(refreshSingleflightKey, func() (any, error) {
		return s.refreshOnce(flightCtx)
	})
	if refreshErr != nil {
		err = refreshErr
		return TokenStatus{}, err
	}
	status, _ = result.(TokenStatus)
	return status, nil
}

func (s *Service) refreshOnce(ctx context.Context) (TokenStatus, error) {
	if s.identity == nil {
		return TokenStatus{}, s.mapError(fmt.Errorf("core: identity provider is not configured"))
	}

	credential, present := s.snapshotCredential()
	if !present {
		return TokenStatus{}, s.unauthenticatedError()
	}
	refreshToken := strings.TrimSpace(credential.RefreshToken)
	if refreshToken == "" {
		s.clearCredential(ctx, "refresh token missing")
		return TokenStatus{}, s.unauthenticatedError()
	}

	s.setRefreshing(true)
	defer s.setRefreshing(false)

	grant, refreshErr := s.identity.Refresh(ctx, refreshToken)
	if refreshErr != nil {
		// Only a provider verdict on the refresh token destroys the record.
		// A transport fault says nothing about the token; the record survives
		// so a later attempt can still use it.
		if !isUnrecoverableRefreshError(refreshErr) {
			return TokenStatus{}, goerrors.Wrap(refreshErr, goerrors.CategoryExternal, "core: token refresh transport failure").
				WithTextCode(ServiceErrorTransport)
		}
		s.clearCredential(ctx, "refresh rejected by provider")
		return TokenStatus{}, goerrors.Wrap(refreshErr, goerrors.CategoryAuth, "core: token refresh failed; reauthorization required").
			WithTextCode(ServiceErrorRefreshFailed)
	}
	if strings.TrimSpace(grant.AccessToken) == "" {
		s.clearCredential(ctx, "refresh grant missing access token")
		return TokenStatus{}, s.errorFactory("core: refresh grant is missing an access token", goerrors.CategoryAuth).
			WithTextCode(ServiceErrorRefreshFailed)
	}

	// Providers are not required to rotate the refresh token; keep the prior
	// one when the grant omits it.
	refreshed := s.credentialFromGrant(grant, refreshToken)
	s.installCredential(refreshed)
	s.persistCredential(ctx, refreshed)

	return s.Status(), nil
}

// Logout clears the credential record in memory and in the store. Clearing
// an absent record succeeds.
func (s *Service) Logout(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "logout", err, fields)
	}()

	if s == nil {
		return fmt.Errorf("core: service is nil")
	}

	s.mu.Lock()
	s.credential = Credential{}
	s.present = false
	s.mu.Unlock()

	if s.credentialStore != nil {
		if clearErr := s.credentialStore.Clear(ctx); clearErr != nil {
			err = goerrors.Wrap(clearErr, goerrors.CategoryOperation, "core: clear stored credential failed").
				WithTextCode(ServiceErrorStorage)
			return err
		}
	}
	return nil
}

// Status reports the current lifecycle snapshot with tokens redacted.
func (s *Service) Status() TokenStatus {
	if s == nil {
		return TokenStatus{State: TokenStateAbsent}
	}

	s.mu.Lock()
	credential := s.credential
	present := s.present
	refreshing := s.refreshing
	s.mu.Unlock()

	status := TokenStatus{State: TokenStateAbsent}
	if !present {
		if refreshing {
			status.State = TokenStateRefreshing
		}
		return status
	}

	status = TokenStatus{
		State:           TokenStateValid,
		TokenType:       credential.TokenType,
		Scope:           credential.Scope,
		IssuedAt:        credential.IssuedAt,
		ExpiresAt:       credential.ExpiresAt,
		HasRefreshToken: strings.TrimSpace(credential.RefreshToken) != "",
	}
	switch {
	case refreshing:
		status.State = TokenStateRefreshing
	case credential.Expired(s.nowUTC()):
		status.State = TokenStateExpired
	}
	return status
}

func (s *Service) TokenState() TokenState {
	return s.Status().State
}

func (s *Service) credentialFromGrant(grant TokenGrant, previousRefreshToken string) Credential {
	now := s.nowUTC()
	ttl := time.Duration(grant.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = s.config.fallbackTTL()
	}

	refreshToken := strings.TrimSpace(grant.RefreshToken)
	if refreshToken == "" {
		refreshToken = strings.TrimSpace(previousRefreshToken)
	}

	return Credential{
		AccessToken:  strings.TrimSpace(grant.AccessToken),
		RefreshToken: refreshToken,
		TokenType:    normalizeTokenType(grant.TokenType),
		Scope:        strings.TrimSpace(grant.Scope),
		IssuedAt:     now,
		ExpiresAt:    now.Add(ttl - s.config.expiryMargin()),
	}
}

func (s *Service) installCredential(credential Credential) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.credential = credential
	s.present = true
	s.mu.Unlock()
}

func (s *Service) snapshotCredential() (Credential, bool) {
	if s == nil {
		return Credential{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential, s.present
}

func (s *Service) setRefreshing(value bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.refreshing = value
	s.mu.Unlock()
}

func (s *Service) clearCredential(ctx context.Context, reason string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.credential = Credential{}
	s.present = false
	s.mu.Unlock()

	if s.credentialStore != nil {
		if clearErr := s.credentialStore.Clear(ctx); clearErr != nil {
			s.logWarn(ctx, "clear stored credential failed", map[string]any{
				"reason": reason,
				"error":  clearErr.Error(),
			})
		}
	}
	s.logInfo(ctx, "credential cleared", map[string]any{"reason": reason})
}

func (s *Service) persistCredential(ctx context.Context, credential Credential) {
	if s == nil || s.credentialStore == nil {
		return
	}
	if saveErr := s.credentialStore.Save(ctx, credential); saveErr != nil {
		s.logWarn(ctx, "credential persist failed; continuing with in-memory record", map[string]any{
			"error": saveErr.Error(),
		})
	}
}

func (s *Service) unauthenticatedError() error {
	if s == nil || s.errorFactory == nil {
		return ErrCredentialNotFound
	}
	return s.errorFactory("core: credential not found; authorization required", goerrors.CategoryAuth).
		WithTextCode(ServiceErrorUnauthenticated)
}

func (s *Service) nowUTC() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
