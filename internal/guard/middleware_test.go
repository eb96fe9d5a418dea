package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
}

type staticResolver struct {
	identity *shared.Identity
	err      error
}

func (s staticResolver) ResolveIdentity(ctx context.Context, userID string) (*shared.Identity, error) {
	return s.identity, s.err
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireRolesUnauthenticated(t *testing.T) {
	m := Middleware{}
	next, called := okHandler()

	req := newRequest(t)
	res := httptest.NewRecorder()
	m.RequireRoles(shared.RoleStudent)(next).ServeHTTP(res, req)

	if *called {
		t.Fatalf("handler must not run for unauthenticated request")
	}
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.NewDecoder(res.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Instance != shared.LoginPath {
		t.Fatalf("expected login path instance, got %q", problem.Instance)
	}
}

func TestRequireRolesWrongRoleGetsOwnHome(t *testing.T) {
	m := Middleware{}
	next, called := okHandler()

	req := newRequest(t)
	ctx := shared.ContextWithIdentity(req.Context(), &shared.Identity{ID: "u-2", Role: shared.RolePlacementStaff})
	res := httptest.NewRecorder()
	m.RequireRoles(shared.RoleAlumni)(next).ServeHTTP(res, req.WithContext(ctx))

	if *called {
		t.Fatalf("handler must not run for wrong role")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.NewDecoder(res.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Instance != shared.PlacementHome {
		t.Fatalf("expected placement home instance, got %q", problem.Instance)
	}
}

func TestRequireRolesMatchingRoleAllows(t *testing.T) {
	m := Middleware{}
	next, called := okHandler()

	req := newRequest(t)
	ctx := shared.ContextWithIdentity(req.Context(), &shared.Identity{ID: "u-1", Role: shared.RoleStudent})
	res := httptest.NewRecorder()
	m.RequireRoles(shared.RoleStudent)(next).ServeHTTP(res, req.WithContext(ctx))

	if !*called {
		t.Fatalf("handler should have run")
	}
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestRequireOnboardedBlocksIncompleteStudent(t *testing.T) {
	checker := &stubChecker{exists: false}
	m := Middleware{Gate: NewGate(checker, nil)}
	next, called := okHandler()

	sess := testSession(t)
	req := newRequest(t)
	ctx := shared.ContextWithSession(req.Context(), sess)
	ctx = shared.ContextWithIdentity(ctx, &shared.Identity{ID: "u-1", Role: shared.RoleStudent})
	res := httptest.NewRecorder()
	m.RequireOnboarded(next).ServeHTTP(res, req.WithContext(ctx))

	if *called {
		t.Fatalf("student without profile must not reach the subtree")
	}
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.NewDecoder(res.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Instance != OnboardingPath {
		t.Fatalf("expected onboarding path instance, got %q", problem.Instance)
	}
}

func TestWithIdentityResolutionFailureLeavesNil(t *testing.T) {
	m := Middleware{Resolver: staticResolver{err: context.DeadlineExceeded}}
	var seen *shared.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	sess := testSession(t)
	sess.SetUser("u-1")
	req := newRequest(t)
	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	m.WithIdentity(next).ServeHTTP(res, req.WithContext(ctx))

	if res.Code != http.StatusOK {
		t.Fatalf("resolution failure must not crash the request, got %d", res.Code)
	}
	if seen != nil {
		t.Fatalf("identity must remain nil for this cycle, got %+v", seen)
	}
}
