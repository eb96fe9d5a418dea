package guard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

// OnboardingPath is where clients send students holding a
// ShowOnboardingForm decision.
const OnboardingPath = "/student/onboarding"

// WarningHeader carries non-fatal degradation notices to the client.
const WarningHeader = "X-Campushire-Warning"

// IdentityResolver loads the identity record for a session's subject id.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*shared.Identity, error)
}

// DecisionCounter tallies guard verdicts for observability.
type DecisionCounter interface {
	CountGuardDecision(kind string)
}

// Middleware wires the access guard and onboarding gate into the router.
type Middleware struct {
	Resolver IdentityResolver
	Gate     *Gate
	Logger   *slog.Logger
	Counter  DecisionCounter
}

// WithIdentity resolves the session's identity and stores it in context.
// A resolution failure after a valid session leaves the identity nil for
// this cycle: the guard then treats the request as unauthenticated rather
// than crashing, and the next request retries.
func (m Middleware) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := m.Resolver.ResolveIdentity(r.Context(), sess.User())
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("identity resolution failed",
					slog.String("user_id", sess.User()),
					slog.Int64("auth_seq", sess.AuthSeq()),
					slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles gates a subtree on the route's allowed roles. An empty role
// list admits any authenticated identity.
func (m Middleware) RequireRoles(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			decision := Evaluate(identity, false, roles, r.URL.Path)
			if m.Counter != nil {
				m.Counter.CountGuardDecision(decision.Kind.String())
			}
			switch decision.Kind {
			case Allow:
				next.ServeHTTP(w, r)
			case RedirectToLogin:
				httpx.ProblemWithInstance(w, http.StatusUnauthorized,
					"Authentication Required",
					"sign in to continue; return to "+decision.From+" afterward",
					decision.RedirectPath)
			case RedirectToOwnHome:
				httpx.ProblemWithInstance(w, http.StatusForbidden,
					"Not Your Area",
					"this area is not available for your role",
					decision.RedirectPath)
			default:
				httpx.Problem(w, http.StatusServiceUnavailable, "Session Pending", "")
			}
		})
	}
}

// RequireOnboarded runs the onboarding gate in front of student pages.
func (m Middleware) RequireOnboarded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		sess := shared.SessionFromContext(r.Context())
		result, degraded := m.Gate.Evaluate(r.Context(), identity, sess)
		if result == PassThrough {
			next.ServeHTTP(w, r)
			return
		}
		detail := "complete your student profile to continue"
		if degraded {
			w.Header().Set(WarningHeader, "profile check unavailable, showing onboarding form")
			detail = "we could not verify your profile; please complete the form"
		}
		httpx.ProblemWithInstance(w, http.StatusConflict,
			"Onboarding Required", detail, OnboardingPath)
	})
}
