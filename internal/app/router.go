package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campushire/campushire/internal/applications"
	"github.com/campushire/campushire/internal/guard"
	"github.com/campushire/campushire/internal/identity"
	"github.com/campushire/campushire/internal/observability"
	"github.com/campushire/campushire/internal/postings"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/quizzes"
	"github.com/campushire/campushire/internal/referrals"
	"github.com/campushire/campushire/internal/seminars"
	"github.com/campushire/campushire/internal/shared"
	"github.com/campushire/campushire/internal/uploads"
	"github.com/campushire/campushire/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          guard.Middleware

	IdentityHandler     *identity.Handler
	ProfilesHandler     *profiles.Handler
	PostingsHandler     *postings.Handler
	ApplicationsHandler *applications.Handler
	QuizzesHandler      *quizzes.Handler
	ReferralsHandler    *referrals.Handler
	SeminarsHandler     *seminars.Handler
	UploadsHandler      *uploads.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with CampusHire defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/auth", params.IdentityHandler.MountRoutes)

	// Everything below resolves the session identity first; role checks
	// happen per subtree.
	r.Group(func(r chi.Router) {
		r.Use(params.Guard.WithIdentity)

		anyRole := params.Guard.RequireRoles(shared.AllRoles()...)

		r.Group(func(r chi.Router) {
			r.Use(anyRole)
			r.Route("/profiles", params.ProfilesHandler.MountProfileRoutes)
			params.UploadsHandler.MountRoutes(r)
		})

		// Onboarding sits outside the gated student subtree so the form
		// stays reachable while the gate still blocks.
		r.Route("/students", func(r chi.Router) {
			r.Use(params.Guard.RequireRoles(shared.RoleStudent))
			params.ProfilesHandler.MountStudentRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(params.Guard.RequireRoles(shared.RoleStudent, shared.RolePlacementStaff))
			r.Route("/postings", params.PostingsHandler.MountRoutes)
			r.Route("/referrals", params.ReferralsHandler.MountRoutes)
		})

		r.Route("/student", func(r chi.Router) {
			r.Use(params.Guard.RequireRoles(shared.RoleStudent))
			r.Use(params.Guard.RequireOnboarded)
			r.Route("/applications", params.ApplicationsHandler.MountStudentRoutes)
			r.Route("/quizzes", params.QuizzesHandler.MountRoutes)
			r.Route("/seminars", params.SeminarsHandler.MountRoutes)
			params.UploadsHandler.MountStudentRoutes(r)
		})

		r.Route("/placement", func(r chi.Router) {
			r.Use(params.Guard.RequireRoles(shared.RolePlacementStaff))
			r.Route("/postings", params.PostingsHandler.MountStaffRoutes)
			params.ApplicationsHandler.MountStaffRoutes(r)
			r.Route("/quizzes", params.QuizzesHandler.MountStaffRoutes)
			r.Route("/seminars", params.SeminarsHandler.MountRoutes)
		})

		r.Route("/alumni", func(r chi.Router) {
			r.Use(params.Guard.RequireRoles(shared.RoleAlumni))
			r.Route("/referrals", params.ReferralsHandler.MountAlumniRoutes)
			r.Route("/seminars", params.SeminarsHandler.MountAlumniRoutes)
		})
	})

	return r
}
