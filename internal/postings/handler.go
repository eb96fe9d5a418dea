package postings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/shared"
)

// Handler wires posting endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	profiles *profiles.Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, profileSvc *profiles.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		profiles: profileSvc,
		validate: validator.New(),
	}
}

// MountRoutes registers posting routes for any authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Get("/{id}/eligibility", h.eligibility)
}

// MountStaffRoutes registers the placement-staff management routes.
func (h *Handler) MountStaffRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Post("/{id}/close", h.close)
}

type postingRequest struct {
	Company        string   `json:"company" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description"`
	Location       string   `json:"location"`
	CTCMinLPA      float64  `json:"ctc_min_lpa" validate:"gte=0"`
	CTCMaxLPA      float64  `json:"ctc_max_lpa" validate:"gte=0"`
	MinCGPA        float64  `json:"min_cgpa" validate:"gte=0,lte=10"`
	Departments    []string `json:"departments"`
	GraduationYear int      `json:"graduation_year" validate:"omitempty,gte=2000,lte=2100"`
	Deadline       string   `json:"deadline" validate:"required"`
}

func (req postingRequest) toInput() (CreateInput, error) {
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return CreateInput{}, err
	}
	return CreateInput{
		Company:        req.Company,
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		CTCMinLPA:      req.CTCMinLPA,
		CTCMaxLPA:      req.CTCMaxLPA,
		MinCGPA:        req.MinCGPA,
		Departments:    req.Departments,
		GraduationYear: req.GraduationYear,
		Deadline:       deadline,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req postingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "deadline must be RFC3339")
		return
	}
	p, err := h.service.Create(r.Context(), identity, in)
	if err != nil {
		h.respondServiceError(w, "create posting", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting id")
		return
	}
	var req postingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "deadline must be RFC3339")
		return
	}
	p, err := h.service.Update(r.Context(), identity, id, in)
	if err != nil {
		h.respondServiceError(w, "update posting", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting id")
		return
	}
	if err := h.service.Close(r.Context(), identity, id); err != nil {
		h.respondServiceError(w, "close posting", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": StatusClosed})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	page, perPage := shared.PageFromQuery(r.URL.Query())
	filter := ListFilter{
		Status:  r.URL.Query().Get("status"),
		Company: r.URL.Query().Get("company"),
	}
	items, total, err := h.service.List(r.Context(), identity, filter, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.respondServiceError(w, "list postings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"postings":   items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "show posting", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) eligibility(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if identity.Role != shared.RoleStudent {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "eligibility posting", err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), identity.ID)
	if err != nil {
		h.respondServiceError(w, "eligibility profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.CheckEligibility(p, profile))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, httpx.ErrForbidden), errors.Is(err, httpx.ErrValidation), errors.Is(err, httpx.ErrConflict):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
