package profiles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campushire/campushire/internal/guard"
	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

// Handler wires profile and onboarding endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     *guard.Gate
	resolver guard.IdentityResolver
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *guard.Gate, resolver guard.IdentityResolver) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		gate:     gate,
		resolver: resolver,
		validate: validator.New(),
	}
}

// MountStudentRoutes registers the onboarding endpoints. These sit outside
// the onboarding-gated subtree: they must be reachable while the gate still
// shows the form.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.Get("/me/profile", h.getOwnProfile)
	r.Post("/me/profile", h.submitOnboarding)
}

// MountProfileRoutes registers identity lookups for any authenticated user.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Get("/me", h.getOwnIdentity)
	r.Get("/{id}", h.getIdentity)
}

func (h *Handler) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	profile, err := h.service.Get(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "student profile not created yet")
			return
		}
		h.logger.Error("get own profile", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

type onboardRequest struct {
	Department     string   `json:"department" validate:"required"`
	Degree         string   `json:"degree" validate:"required"`
	GraduationYear int      `json:"graduation_year" validate:"required,min=2000,max=2100"`
	RegistrationNo string   `json:"registration_no" validate:"required"`
	CGPA           float64  `json:"cgpa" validate:"gte=0,lte=10"`
	Skills         []string `json:"skills" validate:"max=30"`
}

func (h *Handler) submitOnboarding(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if identity.Role != shared.RoleStudent {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "onboarding is a student-only flow")
		return
	}

	var req onboardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	profile, err := h.service.Onboard(r.Context(), identity, OnboardInput{
		Department:     req.Department,
		Degree:         req.Degree,
		GraduationYear: req.GraduationYear,
		RegistrationNo: req.RegistrationNo,
		CGPA:           req.CGPA,
		Skills:         req.Skills,
	})
	if err != nil {
		if errors.Is(err, ErrProfileExists) {
			// Already onboarded; admit the session rather than erroring
			// the user out of their own dashboard.
			h.gate.Admit(shared.SessionFromContext(r.Context()))
			httpx.ProblemWithInstance(w, http.StatusConflict, "Already Onboarded",
				"student profile already exists", shared.StudentHome)
			return
		}
		h.logger.Error("onboarding submit failed",
			slog.String("user_id", identity.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error",
			"could not save your profile; nothing was changed, please retry")
		return
	}

	// Re-resolve the identity so any cached role data is fresh, then admit.
	// A refresh failure is non-fatal: the profile row exists.
	if _, err := h.resolver.ResolveIdentity(r.Context(), identity.ID); err != nil {
		h.logger.Warn("post-onboarding identity refresh failed",
			slog.String("user_id", identity.ID), slog.Any("error", err))
	}
	h.gate.Admit(shared.SessionFromContext(r.Context()))

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"profile": profile,
		"home":    shared.StudentHome,
	})
}

func (h *Handler) getOwnIdentity(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, identity)
}

func (h *Handler) getIdentity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resolved, err := h.resolver.ResolveIdentity(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("profile lookup failed", slog.String("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	payload := map[string]any{"identity": resolved}
	if resolved.Role == shared.RoleStudent {
		if profile, err := h.service.Get(r.Context(), id); err == nil {
			payload["student_profile"] = profile
		}
	}
	httpx.JSON(w, http.StatusOK, payload)
}
