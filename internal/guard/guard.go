// Package guard decides whether a request may reach a protected subtree.
// The decision function is pure: no hidden state, fully determined by the
// identity, the loading flag, and the route's allowed roles.
package guard

import (
	"github.com/campushire/campushire/internal/shared"
)

// DecisionKind enumerates guard outcomes.
type DecisionKind int

const (
	// Pending means the session check has not resolved yet; callers must
	// hold rendering and must not redirect.
	Pending DecisionKind = iota
	// Allow admits the request.
	Allow
	// RedirectToLogin sends an unauthenticated principal to the login flow.
	RedirectToLogin
	// RedirectToOwnHome bounces a wrong-role principal to its own dashboard.
	RedirectToOwnHome
)

func (k DecisionKind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToOwnHome:
		return "redirect_to_own_home"
	}
	return "unknown"
}

// Decision is the guard verdict. RedirectPath is set for redirect kinds;
// From preserves the originally requested location so the login flow can
// return the user afterward.
type Decision struct {
	Kind         DecisionKind
	RedirectPath string
	From         string
}

// Evaluate gates a route. An empty allowedRoles set means "any
// authenticated identity"; a non-empty set additionally requires the
// identity's role to be a member.
func Evaluate(identity *shared.Identity, loading bool, allowedRoles []shared.Role, from string) Decision {
	if loading {
		return Decision{Kind: Pending}
	}
	if identity == nil {
		return Decision{Kind: RedirectToLogin, RedirectPath: shared.LoginPath, From: from}
	}
	if len(allowedRoles) > 0 && !roleAllowed(identity.Role, allowedRoles) {
		return Decision{Kind: RedirectToOwnHome, RedirectPath: shared.HomePath(identity.Role)}
	}
	return Decision{Kind: Allow}
}

func roleAllowed(role shared.Role, allowed []shared.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
