package authclient

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

// Manager owns the SessionStore and runs every reconciliation path against
// the backend: startup verification, login, logout, and on-demand refresh.
// Construct one per application and inject it; there is no package-level
// instance.
type Manager struct {
	cfg       Config
	store     *SessionStore
	creds     CredentialStore
	transport *Transport
	logger    Logger
	activity  ActivitySink
	now       func() time.Time

	flight          singleflight.Group
	started         atomic.Bool
	skipExpiryCheck bool

	httpClient *http.Client
	debug      bool
}

var _ SessionReconciler = (*Manager)(nil)

// Option customizes Manager construction.
type Option func(*Manager)

// WithLogger sets the logger used across the manager and its transport.
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCredentialStore replaces the default in-memory credential store.
func WithCredentialStore(store CredentialStore) Option {
	return func(m *Manager) {
		if store != nil {
			m.creds = store
		}
	}
}

// WithActivitySink configures an ActivitySink for session lifecycle events.
func WithActivitySink(sink ActivitySink) Option {
	return func(m *Manager) {
		m.activity = normalizeActivitySink(sink)
	}
}

// WithHTTPClient injects the http.Client used by the transport (useful for
// tests and custom TLS setups). A cookie jar is added if the client has none.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithTransport replaces the transport wholesale; WithHTTPClient is ignored.
func WithTransport(transport *Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithStore injects a pre-built SessionStore, e.g. one with subscribers
// already attached.
func WithStore(store *SessionStore) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithDebug dumps request/response payloads through the logger.
func WithDebug(debug bool) Option {
	return func(m *Manager) {
		m.debug = debug
	}
}

// WithoutCredentialExpiryCheck disables the startup fast path that prunes a
// stored JWT whose exp already passed, forcing every startup to hit the
// verify endpoint.
func WithoutCredentialExpiryCheck() Option {
	return func(m *Manager) {
		m.skipExpiryCheck = true
	}
}

// New returns a Manager with its store at StatusUnknown. Nothing touches the
// network until Start.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.store == nil {
		m.store = NewSessionStore(WithStoreLogger(m.logger))
	}

	if m.creds == nil {
		m.creds = NewMemoryCredentialStore()
	}

	if m.transport == nil {
		topts := []TransportOption{
			WithTransportLogger(m.logger),
			WithTransportDebug(m.debug),
		}
		if m.httpClient != nil {
			topts = append(topts, WithTransportHTTPClient(m.httpClient))
		}
		m.transport = NewTransport(m.cfg.GetBaseURL(), m.creds, topts...)
	}

	return m
}

// Store exposes the session store for reads and subscriptions.
func (m *Manager) Store() *SessionStore {
	return m.store
}

// Start runs the one startup verification and settles the store out of
// StatusUnknown. Later calls are no-ops returning the current state; login,
// logout, and Refresh are the only other transitions.
func (m *Manager) Start(ctx context.Context) SessionState {
	if !m.started.CompareAndSwap(false, true) {
		return m.store.Current()
	}

	if !m.skipExpiryCheck {
		if credential, err := m.creds.Get(); err == nil && credential != "" {
			if CredentialExpired(credential, m.now()) {
				m.logger.Info("stored credential expired, skipping verification")
				if err := m.creds.Clear(); err != nil {
					m.logger.Warn("failed to clear credential", "error", err)
				}
				state := m.store.Set(SessionState{Status: StatusUnauthenticated})
				m.emit(ctx, newActivityEvent(ActivityEventCredentialPruned, StatusUnknown, state.Status))
				return state
			}
		}
	}

	return m.Refresh(ctx)
}

const verifyFlightKey = "verify"

// Verify asks the backend whether the ambient credential (cookie or bearer)
// still identifies a user. It does not mutate the store; Refresh does.
//
// Concurrent callers share a single in-flight request. The flight detaches
// from the first caller's context so its cancellation cannot poison the
// shared result; the configured verify timeout still bounds the round trip.
func (m *Manager) Verify(ctx context.Context) (*User, error) {
	result, err, _ := m.flight.Do(verifyFlightKey, func() (any, error) {
		vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.GetVerifyTimeout())
		defer cancel()
		return m.verify(vctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*User), nil
}

func (m *Manager) verify(ctx context.Context) (*User, error) {
	res, err := m.transport.Get(ctx, m.cfg.GetVerifyPath())
	if err != nil {
		// Server unreachable and credential invalid intentionally collapse
		// to the same signal; see the package doc.
		m.logger.Debug("verify transport error", "error", err)
		return nil, ErrNotAuthenticated
	}

	if !res.OK() || !res.IsJSON {
		return nil, ErrNotAuthenticated
	}

	user, ok := NormalizeUser(res.JSON)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	return user, nil
}

// Refresh verifies the session and reconciles the store with the outcome.
// A refresh that lost the race against a login/logout committed while its
// request was in flight discards its stale response and keeps the newer
// state.
func (m *Manager) Refresh(ctx context.Context) SessionState {
	issued := m.store.Version()
	from := m.store.Current().Status

	user, err := m.Verify(ctx)

	if m.store.Version() != issued {
		return m.store.Current()
	}

	if err != nil {
		if cerr := m.creds.Clear(); cerr != nil {
			m.logger.Warn("failed to clear credential", "error", cerr)
		}
		state := m.store.Set(SessionState{Status: StatusUnauthenticated})
		m.emit(ctx, newActivityEvent(ActivityEventSessionRejected, from, state.Status))
		return state
	}

	credential, _ := m.creds.Get()
	state := m.store.Set(SessionState{
		Status:     StatusAuthenticated,
		User:       user,
		Credential: credential,
	})

	event := newActivityEvent(ActivityEventSessionVerified, from, state.Status)
	event.UserID = user.ID
	m.emit(ctx, event)

	return state
}

// LoginRequest carries the credentials for a login attempt. Only presence is
// validated client-side; the server is authoritative for everything else.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Login submits credentials and reconciles the store with the result. When
// the backend establishes a cookie session without echoing the user back,
// a follow-up verification confirms the cookie took; a 2xx that still yields
// no user is a login failure.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (SessionState, error) {
	if err := req.Validate(); err != nil {
		return m.store.Current(), errors.Wrap(err, errors.CategoryValidation, "email and password are required").
			WithTextCode(TextCodeMissingCredentials).
			WithCode(errors.CodeBadRequest)
	}

	from := m.store.Current().Status

	res, err := m.transport.Post(ctx, m.cfg.GetLoginPath(), req)
	if err != nil {
		m.logger.Error("Login request error", "error", err)
		state := m.store.Set(SessionState{Status: StatusUnauthenticated})
		m.emitLoginFailure(ctx, from, req.Email, err)
		return state, errors.Wrap(err, errors.CategoryOperation, "could not reach the authentication server").
			WithTextCode(TextCodeServerUnreachable)
	}

	if !res.IsJSON {
		state := m.store.Set(SessionState{Status: StatusUnauthenticated})
		m.emitLoginFailure(ctx, from, req.Email, ErrUnexpectedResponse)
		return state, ErrUnexpectedResponse
	}

	if !res.OK() {
		message := "the credentials provided are invalid"
		metadata := map[string]any{"status": res.StatusCode}
		if serverMsg, ok := serverMessage(res.JSON); ok {
			message = serverMsg
			metadata["server_message"] = serverMsg
		}
		richErr := errors.New(message, errors.CategoryAuth).
			WithTextCode(TextCodeInvalidCreds).
			WithCode(errors.CodeUnauthorized).
			WithMetadata(metadata)

		state := m.store.Set(SessionState{Status: StatusUnauthenticated})
		m.emitLoginFailure(ctx, from, req.Email, richErr)
		return state, richErr
	}

	if token, ok := normalizeToken(res.JSON); ok {
		if err := m.creds.Set(token); err != nil {
			m.logger.Warn("failed to persist credential", "error", err)
		}
	}

	if user, ok := NormalizeUser(res.JSON); ok {
		return m.adoptLogin(ctx, from, user), nil
	}

	// Cookie-only backend: the user arrives via verify, which also confirms
	// the cookie was actually set. A verification already in flight was
	// issued before this login's cookie existed, so drop it and force the
	// confirmation onto a fresh request.
	m.flight.Forget(verifyFlightKey)
	user, err := m.Verify(ctx)
	if err != nil {
		if cerr := m.creds.Clear(); cerr != nil {
			m.logger.Warn("failed to clear credential", "error", cerr)
		}
		state := m.store.Set(SessionState{Status: StatusUnauthenticated})
		m.emitLoginFailure(ctx, from, req.Email, ErrSessionNotEstablished)
		return state, ErrSessionNotEstablished
	}

	return m.adoptLogin(ctx, from, user), nil
}

func (m *Manager) adoptLogin(ctx context.Context, from Status, user *User) SessionState {
	credential, _ := m.creds.Get()
	state := m.store.Set(SessionState{
		Status:     StatusAuthenticated,
		User:       user,
		Credential: credential,
	})

	event := newActivityEvent(ActivityEventLoginSuccess, from, state.Status)
	event.UserID = user.ID
	m.emit(ctx, event)

	return state
}

// Logout is fail-safe in the denies-access direction: the credential is
// cleared and the store set to Unauthenticated before the backend is told,
// and a failing logout endpoint never blocks the local logout.
func (m *Manager) Logout(ctx context.Context) SessionState {
	previous := m.store.Current()

	if err := m.creds.Clear(); err != nil {
		m.logger.Warn("failed to clear credential", "error", err)
	}

	state := m.store.Set(SessionState{Status: StatusUnauthenticated})

	if _, err := m.transport.Post(ctx, m.cfg.GetLogoutPath(), nil); err != nil {
		m.logger.Warn("logout request failed", "error", err)
	}

	event := newActivityEvent(ActivityEventLogout, previous.Status, state.Status)
	if previous.User != nil {
		event.UserID = previous.User.ID
	}
	m.emit(ctx, event)

	return state
}

func (m *Manager) emitLoginFailure(ctx context.Context, from Status, identifier string, err error) {
	event := newActivityEvent(ActivityEventLoginFailure, from, StatusUnauthenticated)
	event.Metadata = map[string]any{
		"identifier": identifier,
		"error":      err.Error(),
	}
	m.emit(ctx, event)
}

func (m *Manager) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activity)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error", "error", err)
	}
}
