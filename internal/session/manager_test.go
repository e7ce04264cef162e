package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookai-labs/sessiond/internal/auth"
	"github.com/cookai-labs/sessiond/internal/domain"
	"github.com/cookai-labs/sessiond/internal/identity"
	"github.com/cookai-labs/sessiond/internal/session/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory single-slot store with error injection.
type fakeStore struct {
	mu       sync.Mutex
	record   []byte
	writeErr error
	writes   int
}

func (s *fakeStore) Read(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil, store.ErrNoSession
	}

	copied := make([]byte, len(s.record))
	copy(copied, s.record)
	return copied, nil
}

func (s *fakeStore) Write(_ context.Context, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}

	s.record = append([]byte(nil), record...)
	s.writes++
	return nil
}

func (s *fakeStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	return nil
}

func (s *fakeStore) stored(t *testing.T) *domain.User {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil
	}

	var user domain.User
	require.NoError(t, json.Unmarshal(s.record, &user))
	return &user
}

// fakeBackend resolves authentication when its gate channel is closed,
// modeling the simulated network latency without sleeping.
type fakeBackend struct {
	gate        chan struct{}
	authErr     error
	registerErr error
}

func (b *fakeBackend) Authenticate(ctx context.Context, email, _ string) (*domain.User, error) {
	if b.gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-b.gate:
		}
	}

	if b.authErr != nil {
		return nil, b.authErr
	}

	return &domain.User{
		ID:         "u-" + email,
		Username:   email[:len(email)-len("@x.com")],
		Email:      email,
		JoinedDate: "March 2026",
	}, nil
}

func (b *fakeBackend) Register(context.Context, string, string, string) error {
	return b.registerErr
}

type fakeProvider struct {
	claims *identity.Claims
	err    error
}

func (p *fakeProvider) Exchange(context.Context) (*identity.Claims, error) {
	if p.err != nil {
		return nil, p.err
	}

	return p.claims, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (n *fakeNotifier) Success(_ context.Context, key string) {
	n.mu.Lock()
	n.success = append(n.success, key)
	n.mu.Unlock()
}

func (n *fakeNotifier) Error(_ context.Context, key string) {
	n.mu.Lock()
	n.failures = append(n.failures, key)
	n.mu.Unlock()
}

type fakeNav struct {
	mu     sync.Mutex
	routes []string
}

func (n *fakeNav) GoTo(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

type fixture struct {
	manager  *Manager
	store    *fakeStore
	backend  *fakeBackend
	provider *fakeProvider
	notifier *fakeNotifier
	nav      *fakeNav
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    &fakeStore{},
		backend:  &fakeBackend{},
		provider: &fakeProvider{claims: &identity.Claims{Subject: "google-1", Email: "pro@gmail.com"}},
		notifier: &fakeNotifier{},
		nav:      &fakeNav{},
	}

	f.manager = NewManager(Options{
		Store:    f.store,
		Backend:  f.backend,
		Provider: f.provider,
		Notifier: f.notifier,
		Nav:      f.nav,
		Log:      testLogger(),
	})

	require.NoError(t, f.manager.Initialize(context.Background()))
	return f
}

func TestInitializeEmptySlot(t *testing.T) {
	f := newFixture(t)

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.HasCompletedPreferences)
	assert.Equal(t, PhaseSignedOut, snap.Phase)
}

func TestInitializeRestoresPersistedSession(t *testing.T) {
	stored := &domain.User{
		ID:          "u-1",
		Username:    "chef",
		Email:       "chef@x.com",
		Preferences: &domain.Preferences{Dietary: []string{"Vegan"}},
	}
	record, err := json.Marshal(stored)
	require.NoError(t, err)

	f := &fixture{
		store:    &fakeStore{record: record},
		backend:  &fakeBackend{},
		notifier: &fakeNotifier{},
		nav:      &fakeNav{},
	}
	f.manager = NewManager(Options{
		Store:    f.store,
		Backend:  f.backend,
		Notifier: f.notifier,
		Nav:      f.nav,
		Log:      testLogger(),
	})

	require.NoError(t, f.manager.Initialize(context.Background()))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "u-1", snap.User.ID)
	assert.True(t, snap.IsAuthenticated)
	assert.True(t, snap.HasCompletedPreferences)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, PhaseSignedIn, snap.Phase)
}

func TestInitializeDiscardsCorruptedRecord(t *testing.T) {
	f := &fixture{
		store:    &fakeStore{record: []byte("{not json")},
		backend:  &fakeBackend{},
		notifier: &fakeNotifier{},
	}
	f.manager = NewManager(Options{
		Store:    f.store,
		Backend:  f.backend,
		Notifier: f.notifier,
		Log:      testLogger(),
	})

	require.NoError(t, f.manager.Initialize(context.Background()))

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsLoading)
	assert.Nil(t, f.store.stored(t), "corrupted record must be deleted")
	assert.Empty(t, f.notifier.failures, "recovery is local, not surfaced as a toast")
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.Login(context.Background(), "chef@x.com", "pw"))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "chef@x.com", snap.User.Email)
	assert.Nil(t, snap.User.Preferences, "login always restarts onboarding")
	assert.False(t, snap.HasCompletedPreferences)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, PhaseSignedIn, snap.Phase)

	assert.Equal(t, snap.User.ID, f.store.stored(t).ID)
	assert.Equal(t, []string{"toasts.login_success"}, f.notifier.success)
	assert.Equal(t, []string{RouteHome}, f.nav.routes)
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.backend.authErr = errors.New("backend down")

	err := f.manager.Login(context.Background(), "chef@x.com", "pw")
	require.Error(t, err)

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, PhaseSignedOut, snap.Phase)
	assert.Nil(t, f.store.stored(t), "no partial persistence on failure")
	assert.Equal(t, []string{"toasts.login_failed"}, f.notifier.failures)
	assert.Empty(t, f.nav.routes)
}

func TestLoginPersistFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.writeErr = errors.New("disk full")

	err := f.manager.Login(context.Background(), "chef@x.com", "pw")
	require.Error(t, err)

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, PhaseSignedOut, snap.Phase)
	assert.Equal(t, []string{"errors.storage"}, f.notifier.failures)
}

func TestLoginResetsOnboardingFromPreviousSession(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.Login(context.Background(), "old@x.com", "pw"))
	dietary := []string{"Vegan"}
	require.NoError(t, f.manager.UpdatePreferences(context.Background(), domain.PreferencesPatch{Dietary: &dietary}))
	require.True(t, f.manager.Snapshot().HasCompletedPreferences)

	f.manager.Logout(context.Background())
	require.NoError(t, f.manager.Login(context.Background(), "new@x.com", "pw"))

	snap := f.manager.Snapshot()
	assert.False(t, snap.HasCompletedPreferences)
	assert.Nil(t, snap.User.Preferences)
}

func TestConcurrentLoginIsSerialized(t *testing.T) {
	f := newFixture(t)
	f.backend.gate = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- f.manager.Login(context.Background(), "first@x.com", "pw")
	}()

	// Wait for the first attempt to claim the slot.
	require.Eventually(t, func() bool {
		return f.manager.Snapshot().IsLoading
	}, 2*time.Second, time.Millisecond)

	err := f.manager.Login(context.Background(), "second@x.com", "pw")
	assert.ErrorIs(t, err, ErrOperationInFlight)

	close(f.backend.gate)
	require.NoError(t, <-firstDone)

	snap := f.manager.Snapshot()
	assert.False(t, snap.IsLoading, "loading must not be stuck after both calls resolve")
	assert.Equal(t, "first@x.com", snap.User.Email)
	assert.Equal(t, 1, f.store.writes, "exactly one attempt reaches the store")
}

func TestLoginWithProviderSuccess(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.LoginWithProvider(context.Background()))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "google-1", snap.User.ID)
	assert.Equal(t, "pro", snap.User.Username)
	assert.Nil(t, snap.User.Preferences)
	assert.Equal(t, []string{"toasts.google_login_success"}, f.notifier.success)
	assert.Equal(t, []string{RouteHome}, f.nav.routes)
}

func TestLoginWithProviderFailureKinds(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		expectToast string
	}{
		{"unauthorized origin", identity.ErrUnauthorizedOrigin, "toasts.google_unauthorized_origin"},
		{"cancelled", identity.ErrExchangeCancelled, "toasts.google_cancelled"},
		{"duplicate request", identity.ErrExchangeInFlight, "toasts.google_duplicate_request"},
		{"unavailable", identity.ErrExchangeUnavailable, "toasts.google_unavailable"},
		{"unknown", errors.New("boom"), "toasts.google_login_failed"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.err = tc.err

			err := f.manager.LoginWithProvider(context.Background())
			require.Error(t, err)

			assert.Equal(t, []string{tc.expectToast}, f.notifier.failures)
			snap := f.manager.Snapshot()
			assert.Nil(t, snap.User)
			assert.False(t, snap.IsLoading)
		})
	}
}

func TestSignupDoesNotOpenSession(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.Signup(context.Background(), "chef", "chef@x.com", "longenough"))

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsLoading)
	assert.Nil(t, f.store.stored(t))
	assert.Equal(t, []string{"toasts.signup_success"}, f.notifier.success)
	assert.Equal(t, []string{RouteLogin}, f.nav.routes)
}

func TestSignupFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.registerErr = auth.ErrEmailExists

	err := f.manager.Signup(context.Background(), "chef", "chef@x.com", "longenough")
	require.Error(t, err)

	assert.Equal(t, []string{"toasts.signup_failed"}, f.notifier.failures)
	assert.False(t, f.manager.Snapshot().IsLoading)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Login(context.Background(), "chef@x.com", "pw"))

	f.manager.Logout(context.Background())
	f.manager.Logout(context.Background())

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.User)
	assert.Equal(t, PhaseSignedOut, snap.Phase)
	assert.Nil(t, f.store.stored(t))
	assert.Equal(t,
		[]string{"toasts.login_success", "toasts.logout_success", "toasts.logout_success"},
		f.notifier.success)
}

func TestUpdateUserSilentAndShallow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Login(context.Background(), "chef@x.com", "pw"))
	dietary := []string{"Vegan"}
	require.NoError(t, f.manager.UpdatePreferences(context.Background(), domain.PreferencesPatch{Dietary: &dietary}))

	toastsBefore := len(f.notifier.success)

	name := "Chef Remy"
	require.NoError(t, f.manager.UpdateUser(context.Background(), domain.UserPatch{Name: &name}))

	snap := f.manager.Snapshot()
	assert.Equal(t, "Chef Remy", snap.User.Name)
	assert.True(t, snap.HasCompletedPreferences, "profile update must not touch onboarding state")
	assert.Equal(t, []string{"Vegan"}, snap.User.Preferences.Dietary)
	assert.Len(t, f.notifier.success, toastsBefore, "profile update is silent")

	assert.Equal(t, "Chef Remy", f.store.stored(t).Name)
}

func TestUpdateUserNoSessionIsNoOp(t *testing.T) {
	f := newFixture(t)

	name := "ghost"
	require.NoError(t, f.manager.UpdateUser(context.Background(), domain.UserPatch{Name: &name}))
	assert.Nil(t, f.store.stored(t))
	assert.Empty(t, f.notifier.failures)
}

func TestUpdatePreferencesMergesAndPersists(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Login(context.Background(), "chef@x.com", "pw"))

	dietary := []string{"Vegan"}
	require.NoError(t, f.manager.UpdatePreferences(context.Background(), domain.PreferencesPatch{Dietary: &dietary}))

	allergies := []string{"Nuts"}
	require.NoError(t, f.manager.UpdatePreferences(context.Background(), domain.PreferencesPatch{Allergies: &allergies}))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.User.Preferences)
	assert.Equal(t, []string{"Vegan"}, snap.User.Preferences.Dietary)
	assert.Equal(t, []string{"Nuts"}, snap.User.Preferences.Allergies)
	assert.True(t, snap.HasCompletedPreferences)

	persisted := f.store.stored(t)
	require.NotNil(t, persisted.Preferences)
	assert.Equal(t, []string{"Vegan"}, persisted.Preferences.Dietary)

	assert.Contains(t, f.notifier.success, "toasts.preferences_saved")
}

func TestUpdatePreferencesEmptyPatchCompletesOnboarding(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Login(context.Background(), "chef@x.com", "pw"))

	require.NoError(t, f.manager.UpdatePreferences(context.Background(), domain.PreferencesPatch{}))

	snap := f.manager.Snapshot()
	require.NotNil(t, snap.User.Preferences, "empty preferences still count as present")
	assert.True(t, snap.HasCompletedPreferences)
}

func TestUpdatePreferencesNoSessionIsNoOp(t *testing.T) {
	f := newFixture(t)

	dietary := []string{"Vegan"}
	require.NoError(t, f.manager.UpdatePreferences(context.Background(), domain.PreferencesPatch{Dietary: &dietary}))
	assert.Nil(t, f.store.stored(t))
	assert.Empty(t, f.notifier.success)
}

func TestSessionRoundTripThroughStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Login(context.Background(), "chef@x.com", "pw"))
	dietary := []string{"Vegetarian"}
	require.NoError(t, f.manager.UpdatePreferences(context.Background(), domain.PreferencesPatch{Dietary: &dietary}))

	before := f.manager.Snapshot().User

	restored := NewManager(Options{
		Store:    f.store,
		Backend:  f.backend,
		Notifier: &fakeNotifier{},
		Log:      testLogger(),
	})
	require.NoError(t, restored.Initialize(context.Background()))

	after := restored.Snapshot()
	assert.Equal(t, before, after.User)
	assert.True(t, after.HasCompletedPreferences)
}

func TestPhaseTransitions(t *testing.T) {
	testCases := []struct {
		from    Phase
		to      Phase
		allowed bool
	}{
		{PhaseSignedOut, PhaseAuthenticating, true},
		{PhaseSignedOut, PhaseRegistering, true},
		{PhaseSignedOut, PhaseSignedIn, false},
		{PhaseAuthenticating, PhaseSignedIn, true},
		{PhaseAuthenticating, PhaseSignedOut, true},
		{PhaseRegistering, PhaseSignedOut, true},
		{PhaseRegistering, PhaseSignedIn, false},
		{PhaseSignedIn, PhaseAuthenticating, true},
		{PhaseSignedIn, PhaseSignedOut, true},
	}

	for _, tc := range testCases {
		assert.Equalf(t, tc.allowed, IsTransitionAllowed(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestFailedLoginAfterMidFlightLogoutSettlesSignedOut(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Login(context.Background(), "first@x.com", "pw"))

	f.backend.gate = make(chan struct{})
	f.backend.authErr = errors.New("rejected")

	attemptDone := make(chan error, 1)
	go func() {
		attemptDone <- f.manager.Login(context.Background(), "second@x.com", "pw")
	}()

	require.Eventually(t, func() bool {
		return f.manager.Snapshot().IsLoading
	}, 2*time.Second, time.Millisecond)

	// Logout clears the user while the second attempt is still in flight.
	f.manager.Logout(context.Background())

	close(f.backend.gate)
	require.Error(t, <-attemptDone)

	snap := f.manager.Snapshot()
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, PhaseSignedOut, snap.Phase, "phase must settle from the session, not the pre-login snapshot")
}
