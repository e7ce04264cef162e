// Package session owns the single source of truth for "who is logged in"
// and keeps the persisted session slot consistent with in-memory state.
package session

// Phase represents the lifecycle state of the session machine.
type Phase string

const (
	// PhaseSignedOut indicates no session is active.
	PhaseSignedOut Phase = "signed_out"
	// PhaseAuthenticating indicates a login attempt is in flight.
	PhaseAuthenticating Phase = "authenticating"
	// PhaseRegistering indicates a signup attempt is in flight.
	PhaseRegistering Phase = "registering"
	// PhaseSignedIn indicates an active session with a current user.
	PhaseSignedIn Phase = "signed_in"
)

// validTransitions contains the permitted phase moves. Signing out is always
// allowed, which is what makes logout idempotent.
var validTransitions = map[Phase][]Phase{
	PhaseSignedOut: {
		PhaseAuthenticating,
		PhaseRegistering,
	},
	PhaseAuthenticating: {
		PhaseSignedIn,
	},
	PhaseRegistering: {},
	PhaseSignedIn: {
		// A logged-in user may start a fresh login or signup; the completed
		// attempt replaces the current session.
		PhaseAuthenticating,
		PhaseRegistering,
	},
}

// IsTransitionAllowed reports whether moving between the two phases is valid.
func IsTransitionAllowed(from, to Phase) bool {
	if to == PhaseSignedOut {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == to {
			return true
		}
	}

	return false
}

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe phase
// transitions, e.g. for metrics.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}
