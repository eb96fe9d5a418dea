package guard

import (
	"context"
	"log/slog"

	"github.com/campushire/campushire/internal/shared"
)

// GateState enumerates the onboarding gate states for a session.
type GateState int

const (
	// GateChecking is the initial state while the existence query runs.
	GateChecking GateState = iota
	// GateNeedsOnboarding blocks student pages behind the profile form.
	GateNeedsOnboarding
	// GateAdmitted is terminal for the lifetime of the session.
	GateAdmitted
)

// GateResult is the gate's render decision.
type GateResult int

const (
	// PassThrough renders the requested subtree.
	PassThrough GateResult = iota
	// ShowOnboardingForm forces the mandatory profile form first.
	ShowOnboardingForm
)

// ProfileChecker answers whether a student profile row exists for a user.
type ProfileChecker interface {
	StudentProfileExists(ctx context.Context, userID string) (bool, error)
}

// Gate forces students through one-time profile completion before any
// student page is reachable. Admission is cached on the session record, so
// the existence query never re-runs after a pass and a half-written profile
// cannot flip an admitted session back.
type Gate struct {
	checker ProfileChecker
	logger  *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(checker ProfileChecker, logger *slog.Logger) *Gate {
	return &Gate{checker: checker, logger: logger}
}

// Evaluate runs the gate for one request. Degraded reports that the
// existence check errored and the form is being shown fail-safe; callers
// surface it as a non-fatal warning.
func (g *Gate) Evaluate(ctx context.Context, identity *shared.Identity, sess *shared.Session) (result GateResult, degraded bool) {
	// Unauthenticated and non-student principals are not this gate's
	// concern; the access guard handles them.
	if identity == nil || identity.Role != shared.RoleStudent {
		return PassThrough, false
	}
	if sess != nil && sess.Onboarded() {
		return PassThrough, false
	}

	exists, err := g.checker.StudentProfileExists(ctx, identity.ID)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("onboarding existence check failed",
				slog.String("user_id", identity.ID),
				slog.Any("error", err))
		}
		return ShowOnboardingForm, true
	}
	if !exists {
		return ShowOnboardingForm, false
	}

	if sess != nil {
		sess.MarkOnboarded()
	}
	return PassThrough, false
}

// Admit transitions NeedsOnboarding to Admitted after a successful form
// submission. This is the only path out of NeedsOnboarding; the existence
// check is never re-run automatically.
func (g *Gate) Admit(sess *shared.Session) {
	if sess != nil {
		sess.MarkOnboarded()
	}
}

// State reports the session's current gate state for an identity without
// consulting storage. GateChecking means no answer has been cached yet.
func (g *Gate) State(identity *shared.Identity, sess *shared.Session) GateState {
	if identity == nil || identity.Role != shared.RoleStudent {
		return GateAdmitted
	}
	if sess != nil && sess.Onboarded() {
		return GateAdmitted
	}
	return GateChecking
}
