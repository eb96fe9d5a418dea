package identity_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushire/campushire/internal/app"
	"github.com/campushire/campushire/internal/identity"
	"github.com/campushire/campushire/internal/shared"
	_ "github.com/campushire/campushire/testing"
)

type stubRepo struct {
	account *identity.Account
}

func (s *stubRepo) CreateAccount(ctx context.Context, acc *identity.Account) error {
	s.account = acc
	return nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	if s.account == nil || s.account.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*identity.Account, error) {
	if s.account == nil || s.account.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubRepo) MarkEmailVerified(ctx context.Context, id string) error {
	if s.account == nil || s.account.ID != id {
		return shared.ErrNotFound
	}
	s.account.EmailVerified = true
	return nil
}

func (s *stubRepo) SetAvatarKey(ctx context.Context, id, key string) error {
	return nil
}

func verifiedStudent(t *testing.T, password string) *identity.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &identity.Account{
		ID:            "acc-1",
		Email:         "student@college.edu",
		PasswordHash:  string(hash),
		Role:          shared.RoleStudent,
		EmailVerified: true,
		IsActive:      true,
	}
}

func newTestRouter(t *testing.T, repo identity.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	service := identity.NewService(repo, identity.NewTokenIssuer("tokensecret", time.Hour), nil, nopLogger())
	handler := identity.NewHandler(nopLogger(), service, sessionManager, csrfManager)

	r := chi.NewRouter()
	r.Use(app.SessionMiddleware(sessionManager, nopLogger()))
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionCheckAnonymous(t *testing.T) {
	router, _ := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("session check must not error for anonymous visitor, got %d", res.Code)
	}
	var body struct {
		Identity *shared.Identity `json:"identity"`
		Seq      int64            `json:"seq"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Identity != nil {
		t.Fatalf("expected null identity, got %+v", body.Identity)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := newTestRouter(t, &stubRepo{account: verifiedStudent(t, "correct-horse")})

	res := postJSON(t, router, "/auth/login", `{"email":"student@college.edu","password":"wrong"}`, nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid Credentials") {
		t.Fatalf("expected generic credential failure, body: %s", res.Body.String())
	}
}

func TestLoginUnverifiedEmailMessage(t *testing.T) {
	acc := verifiedStudent(t, "correct-horse")
	acc.EmailVerified = false
	router, _ := newTestRouter(t, &stubRepo{account: acc})

	res := postJSON(t, router, "/auth/login", `{"email":"student@college.edu","password":"correct-horse"}`, nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email Not Confirmed") {
		t.Fatalf("expected verification-specific message, body: %s", res.Body.String())
	}
	if strings.Contains(res.Body.String(), "Invalid Credentials") {
		t.Fatalf("unverified email must not read as bad credentials")
	}
}

func TestLoginThenSessionResolvesIdentity(t *testing.T) {
	router, sm := newTestRouter(t, &stubRepo{account: verifiedStudent(t, "correct-horse")})

	res := postJSON(t, router, "/auth/login", `{"email":"student@college.edu","password":"correct-horse"}`, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var loginBody struct {
		Home string `json:"home"`
		Seq  int64  `json:"seq"`
	}
	if err := json.NewDecoder(res.Body).Decode(&loginBody); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if loginBody.Home != shared.StudentHome {
		t.Fatalf("expected student home, got %q", loginBody.Home)
	}
	if loginBody.Seq < 1 {
		t.Fatalf("login must advance the auth sequence, got %d", loginBody.Seq)
	}

	cookie := sessionCookie(t, res, sm.CookieName())
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	sessionRes := httptest.NewRecorder()
	router.ServeHTTP(sessionRes, req)

	var sessionBody struct {
		Identity *shared.Identity `json:"identity"`
		Seq      int64            `json:"seq"`
	}
	if err := json.NewDecoder(sessionRes.Body).Decode(&sessionBody); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sessionBody.Identity == nil || sessionBody.Identity.Role != shared.RoleStudent {
		t.Fatalf("expected resolved student identity, got %+v", sessionBody.Identity)
	}
	if sessionBody.Seq != loginBody.Seq {
		t.Fatalf("session seq %d does not match login seq %d", sessionBody.Seq, loginBody.Seq)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	router, sm := newTestRouter(t, &stubRepo{account: verifiedStudent(t, "correct-horse")})

	res := postJSON(t, router, "/auth/login", `{"email":"student@college.edu","password":"correct-horse"}`, nil)
	cookie := sessionCookie(t, res, sm.CookieName())

	logoutRes := postJSON(t, router, "/auth/logout", ``, cookie)
	if logoutRes.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", logoutRes.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	sessionRes := httptest.NewRecorder()
	router.ServeHTTP(sessionRes, req)
	var body struct {
		Identity *shared.Identity `json:"identity"`
	}
	if err := json.NewDecoder(sessionRes.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Identity != nil {
		t.Fatalf("expected cleared identity after logout, got %+v", body.Identity)
	}
}

func postJSON(t *testing.T, router http.Handler, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	t.Fatalf("session cookie %q not set", name)
	return nil
}
