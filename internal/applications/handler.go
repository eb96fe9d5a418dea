package applications

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/postings"
	"github.com/campushire/campushire/internal/shared"
)

// Handler wires application endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountStudentRoutes registers the student application routes.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.Get("/", h.listOwn)
	r.Post("/", h.apply)
	r.Post("/{id}/withdraw", h.withdraw)
}

// MountStaffRoutes registers the placement-staff review routes.
func (h *Handler) MountStaffRoutes(r chi.Router) {
	r.Get("/postings/{postingID}/applications", h.listForPosting)
	r.Get("/postings/{postingID}/applications/export", h.exportCSV)
	r.Post("/applications/{id}/status", h.advance)
}

type applyRequest struct {
	PostingID int64  `json:"posting_id" validate:"required,gt=0"`
	CoverNote string `json:"cover_note" validate:"max=2000"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req applyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	a, err := h.service.Apply(r.Context(), identity, ApplyInput{PostingID: req.PostingID, CoverNote: req.CoverNote})
	if err != nil {
		h.respondServiceError(w, "apply", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid application id")
		return
	}
	if err := h.service.Withdraw(r.Context(), identity, id); err != nil {
		h.respondServiceError(w, "withdraw", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": StatusWithdrawn})
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	items, err := h.service.ListOwn(r.Context(), identity)
	if err != nil {
		h.respondServiceError(w, "list own", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"applications": items})
}

func (h *Handler) listForPosting(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	postingID, err := strconv.ParseInt(chi.URLParam(r, "postingID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting id")
		return
	}
	rows, err := h.service.ListForPosting(r.Context(), identity, postingID)
	if err != nil {
		h.respondServiceError(w, "list for posting", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"applications": rows})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	postingID, err := strconv.ParseInt(chi.URLParam(r, "postingID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting id")
		return
	}
	rows, err := h.service.ListForPosting(r.Context(), identity, postingID)
	if err != nil {
		h.respondServiceError(w, "export csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="applications-posting-%d.csv"`, postingID))
	if err := WriteCSV(w, rows); err != nil {
		h.logger.Error("stream applications csv", slog.Any("error", err))
	}
}

type advanceRequest struct {
	Status string `json:"status" validate:"required,oneof=shortlisted interview offered rejected"`
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid application id")
		return
	}
	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	a, err := h.service.Advance(r.Context(), identity, id, req.Status)
	if err != nil {
		h.respondServiceError(w, "advance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, postings.ErrNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, ErrAlreadyApplied):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "application already submitted for this posting")
	case errors.Is(err, ErrBadTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNotEligible):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Not Eligible", err.Error())
	case errors.Is(err, httpx.ErrForbidden):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
