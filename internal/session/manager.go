package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cookai-labs/sessiond/internal/auth"
	"github.com/cookai-labs/sessiond/internal/domain"
	apperrors "github.com/cookai-labs/sessiond/internal/errors"
	"github.com/cookai-labs/sessiond/internal/identity"
	"github.com/cookai-labs/sessiond/internal/notify"
	"github.com/cookai-labs/sessiond/internal/session/store"
)

// Routes the manager navigates to after its operations complete.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

// ErrOperationInFlight indicates a login or signup was requested while
// another one was still pending. Asynchronous operations are serialized:
// the caller must wait for the pending attempt to resolve.
var ErrOperationInFlight = errors.New("another session operation is in flight")

// Navigator is the navigation side-effect port. GoTo is called at defined
// points: post-login, post-logout and post-signup.
type Navigator interface {
	GoTo(route string)
}

// Snapshot is the read-only state the manager exposes to consumers.
type Snapshot struct {
	User                    *domain.User
	IsAuthenticated         bool
	IsLoading               bool
	HasCompletedPreferences bool
	Phase                   Phase
	Token                   string
}

// Options configures a Manager.
type Options struct {
	Store    store.Store
	Backend  auth.Backend
	Provider identity.Provider
	Tokens   *auth.TokenManager
	Notifier notify.Notifier
	Nav      Navigator
	Log      *slog.Logger

	// RedirectDelay postpones post-login and post-signup navigation. This is
	// deliberate UX pacing carried over from the web client; zero navigates
	// synchronously, which is what tests use.
	RedirectDelay time.Duration

	Now func() time.Time
}

// Manager mediates all session transitions. It is constructed once per
// process and injected into whatever needs it.
type Manager struct {
	mu             sync.Mutex
	user           *domain.User
	phase          Phase
	loading        bool
	completedPrefs bool
	token          string

	store         store.Store
	backend       auth.Backend
	provider      identity.Provider
	tokens        *auth.TokenManager
	notifier      notify.Notifier
	nav           Navigator
	breaker       *apperrors.CircuitBreaker
	log           *slog.Logger
	redirectDelay time.Duration
	now           func() time.Time
}

// NewManager constructs a Manager. The manager reports loading until
// Initialize has run; no other operation should be trusted before that.
func NewManager(opts Options) *Manager {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		phase:         PhaseSignedOut,
		loading:       true,
		store:         opts.Store,
		backend:       opts.Backend,
		provider:      opts.Provider,
		tokens:        opts.Tokens,
		notifier:      opts.Notifier,
		nav:           opts.Nav,
		breaker:       apperrors.NewCircuitBreaker(),
		log:           log,
		redirectDelay: opts.RedirectDelay,
		now:           now,
	}
}

// Snapshot returns a copy of the observable session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		User:                    m.user.Clone(),
		IsAuthenticated:         m.user != nil,
		IsLoading:               m.loading,
		HasCompletedPreferences: m.completedPrefs,
		Phase:                   m.phase,
		Token:                   m.token,
	}
}

// Initialize restores the persisted session, if any. It runs once per
// process lifetime before any other operation. A corrupted record is
// discarded and logged; the session then starts empty. Initialize is the
// only path that resolves the initial loading state.
func (m *Manager) Initialize(ctx context.Context) error {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	record, err := m.store.Read(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			return nil
		}

		m.log.Error("failed to read persisted session", slog.Any("error", err))
		return apperrors.NewStorageError(err)
	}

	var user domain.User
	if err := json.Unmarshal(record, &user); err != nil || user.ID == "" {
		if err == nil {
			err = errors.New("record has no user id")
		}

		m.log.Error("discarding corrupted session record", slog.Any("error", err))
		if delErr := m.store.Delete(ctx); delErr != nil {
			m.log.Error("failed to discard corrupted session record", slog.Any("error", delErr))
		}
		return nil
	}

	m.mu.Lock()
	m.user = &user
	m.completedPrefs = user.Preferences != nil
	m.transitionLocked(PhaseSignedIn)
	m.mu.Unlock()

	m.log.Info("session restored",
		slog.String("user_id", user.ID),
		slog.Bool("onboarded", user.Preferences != nil),
	)

	return nil
}

// Login authenticates with email and password. On success the fresh user
// becomes the current session (preferences absent, restarting onboarding),
// the record is persisted and the caller is navigated home after the
// redirect delay. On failure the previous state is left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	release, err := m.beginExclusive(PhaseAuthenticating)
	if err != nil {
		return err
	}

	user, err := m.backend.Authenticate(ctx, email, password)
	if err != nil {
		release()
		m.notifier.Error(ctx, "toasts.login_failed")
		return apperrors.NewCredentialsError(err)
	}

	if err := m.commitLogin(ctx, user, release); err != nil {
		return err
	}

	m.notifier.Success(ctx, "toasts.login_success")
	m.navigateAfterDelay(RouteHome)
	return nil
}

// LoginWithProvider runs the identity-provider exchange and opens a session
// from the returned claims. Each provider failure kind raises its own
// notification; unknown failures fall back to the generic one.
func (m *Manager) LoginWithProvider(ctx context.Context) error {
	release, err := m.beginExclusive(PhaseAuthenticating)
	if err != nil {
		return err
	}

	var claims *identity.Claims
	exchangeErr := m.breaker.Call(func() error {
		return apperrors.WithRetry(ctx, func() error {
			var err error
			claims, err = m.provider.Exchange(ctx)
			if err != nil && errors.Is(err, identity.ErrExchangeUnavailable) {
				// the only failure kind worth retrying; cancellations and
				// duplicate requests are final
				return apperrors.NewProviderError(identity.FailureKind(err), err)
			}
			return err
		})
	})
	if exchangeErr != nil {
		release()
		kind := identity.FailureKind(exchangeErr)
		m.notifier.Error(ctx, providerToastKey(kind))
		return apperrors.NewProviderError(kind, exchangeErr)
	}

	user := &domain.User{
		ID:         claims.Subject,
		Name:       claims.Name,
		Username:   usernameFromEmail(claims.Email),
		Email:      claims.Email,
		Avatar:     claims.Picture,
		JoinedDate: domain.JoinedDateNow(m.now()),
	}

	if err := m.commitLogin(ctx, user, release); err != nil {
		return err
	}

	m.notifier.Success(ctx, "toasts.google_login_success")
	m.navigateAfterDelay(RouteHome)
	return nil
}

// Signup registers a new account. It deliberately does not open a session;
// the user is navigated to the login page instead.
func (m *Manager) Signup(ctx context.Context, username, email, password string) error {
	release, err := m.beginExclusive(PhaseRegistering)
	if err != nil {
		return err
	}
	defer release()

	if err := m.backend.Register(ctx, username, email, password); err != nil {
		m.notifier.Error(ctx, "toasts.signup_failed")
		return apperrors.NewSignupError(err)
	}

	m.notifier.Success(ctx, "toasts.signup_success")
	m.navigateAfterDelay(RouteLogin)
	return nil
}

// Logout clears the session and deletes the persisted record. It is
// idempotent: logging out while signed out only raises the notification and
// navigates home.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.completedPrefs = false
	m.transitionLocked(PhaseSignedOut)
	m.mu.Unlock()

	if err := m.store.Delete(ctx); err != nil {
		m.log.Error("failed to delete session record on logout", slog.Any("error", err))
	}

	m.notifier.Success(ctx, "toasts.logout_success")
	if m.nav != nil {
		m.nav.GoTo(RouteHome)
	}
}

// UpdateUser shallow-merges profile fields into the current user and
// re-persists. It is a silent no-op when no session is active and never
// touches preferences.
func (m *Manager) UpdateUser(ctx context.Context, patch domain.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user == nil {
		return nil
	}

	updated := m.user.Clone()
	updated.Apply(patch)

	if err := m.persistLocked(ctx, updated); err != nil {
		return err
	}

	m.user = updated
	return nil
}

// UpdatePreferences merges the partial preferences into the current user's
// preferences field by field and marks onboarding as completed. This is the
// only operation that sets HasCompletedPreferences; nothing resets it while
// the session lives.
func (m *Manager) UpdatePreferences(ctx context.Context, patch domain.PreferencesPatch) error {
	m.mu.Lock()

	if m.user == nil {
		m.mu.Unlock()
		return nil
	}

	merged := domain.MergePreferences(m.user.Preferences, patch)
	updated := m.user.Clone()
	updated.Preferences = &merged

	if err := m.persistLocked(ctx, updated); err != nil {
		m.mu.Unlock()
		m.notifier.Error(ctx, "errors.storage")
		return err
	}

	m.user = updated
	m.completedPrefs = true
	m.mu.Unlock()

	m.notifier.Success(ctx, "toasts.preferences_saved")
	return nil
}

// beginExclusive claims the single asynchronous-operation slot and moves to
// the in-flight phase. The returned release function clears the loading flag
// and settles the phase from the session itself rather than a snapshot taken
// at begin time: a logout may have cleared the user while the attempt was in
// flight.
func (m *Manager) beginExclusive(inFlight Phase) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading {
		return nil, ErrOperationInFlight
	}

	if !IsTransitionAllowed(m.phase, inFlight) {
		return nil, apperrors.NewSessionStateError(
			fmt.Sprintf("cannot start %s from %s", inFlight, m.phase),
		)
	}

	m.transitionLocked(inFlight)
	m.loading = true

	release := func() {
		m.mu.Lock()
		settled := PhaseSignedOut
		if m.user != nil {
			settled = PhaseSignedIn
		}
		m.transitionLocked(settled)
		m.loading = false
		m.mu.Unlock()
	}

	return release, nil
}

// commitLogin persists the fresh user and installs it as the current
// session. On persistence failure the previous state is restored untouched.
func (m *Manager) commitLogin(ctx context.Context, user *domain.User, release func()) error {
	record, err := json.Marshal(user)
	if err != nil {
		release()
		m.notifier.Error(ctx, "errors.storage")
		return apperrors.NewStorageError(err)
	}

	if err := m.store.Write(ctx, record); err != nil {
		release()
		m.notifier.Error(ctx, "errors.storage")
		return apperrors.NewStorageError(err)
	}

	var token string
	if m.tokens != nil {
		token, err = m.tokens.Generate(user)
		if err != nil {
			m.log.Error("failed to mint session token", slog.Any("error", err))
		}
	}

	m.mu.Lock()
	m.user = user
	m.token = token
	m.completedPrefs = user.Preferences != nil
	m.transitionLocked(PhaseSignedIn)
	m.loading = false
	m.mu.Unlock()

	m.log.Info("session opened", slog.String("user_id", user.ID))
	return nil
}

// persistLocked writes the given user to the store. Callers hold m.mu.
func (m *Manager) persistLocked(ctx context.Context, user *domain.User) error {
	record, err := json.Marshal(user)
	if err != nil {
		return apperrors.NewStorageError(err)
	}

	if err := m.store.Write(ctx, record); err != nil {
		return apperrors.NewStorageError(err)
	}

	return nil
}

func (m *Manager) transitionLocked(to Phase) {
	if m.phase == to {
		return
	}

	transitionRecorder(string(m.phase), string(to))
	m.phase = to
}

func (m *Manager) navigateAfterDelay(route string) {
	if m.nav == nil {
		return
	}

	if m.redirectDelay <= 0 {
		m.nav.GoTo(route)
		return
	}

	time.AfterFunc(m.redirectDelay, func() {
		m.nav.GoTo(route)
	})
}

func providerToastKey(kind string) string {
	switch kind {
	case "unauthorized_origin":
		return "toasts.google_unauthorized_origin"
	case "cancelled":
		return "toasts.google_cancelled"
	case "duplicate_request":
		return "toasts.google_duplicate_request"
	case "unavailable":
		return "toasts.google_unavailable"
	default:
		return "toasts.google_login_failed"
	}
}

func usernameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}

	return email
}
