package referrals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

// Handler wires referral endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the browse routes for students and staff.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listActive)
}

// MountAlumniRoutes registers the alumni management routes.
func (h *Handler) MountAlumniRoutes(r chi.Router) {
	r.Get("/", h.listOwn)
	r.Post("/", h.create)
	r.Post("/{id}/close", h.close)
}

type createRequest struct {
	Company     string `json:"company" validate:"required"`
	RoleTitle   string `json:"role_title" validate:"required"`
	Description string `json:"description" validate:"required,max=4000"`
	ApplyURL    string `json:"apply_url" validate:"omitempty,url"`
	ContactNote string `json:"contact_note" validate:"max=500"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ref, err := h.service.Create(r.Context(), identity, CreateInput{
		Company:     req.Company,
		RoleTitle:   req.RoleTitle,
		Description: req.Description,
		ApplyURL:    req.ApplyURL,
		ContactNote: req.ContactNote,
	})
	if err != nil {
		h.respondServiceError(w, "create referral", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ref)
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListActive(r.Context())
	if err != nil {
		h.respondServiceError(w, "list active referrals", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"referrals": items})
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	items, err := h.service.ListOwn(r.Context(), identity)
	if err != nil {
		h.respondServiceError(w, "list own referrals", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"referrals": items})
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid referral id")
		return
	}
	if err := h.service.Close(r.Context(), identity, id); err != nil {
		h.respondServiceError(w, "close referral", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": StatusClosed})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, httpx.ErrForbidden):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
