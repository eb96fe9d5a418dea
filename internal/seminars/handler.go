package seminars

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/shared"
)

// Handler wires seminar request endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the requester-side routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOutgoing)
	r.Post("/", h.request)
}

// MountAlumniRoutes registers the alumni inbox routes.
func (h *Handler) MountAlumniRoutes(r chi.Router) {
	r.Get("/", h.listIncoming)
	r.Post("/{id}/accept", h.accept)
	r.Post("/{id}/decline", h.decline)
}

type requestBody struct {
	AlumnusID    string `json:"alumnus_id" validate:"required,uuid4"`
	Topic        string `json:"topic" validate:"required,max=200"`
	Details      string `json:"details" validate:"max=4000"`
	ProposedDate string `json:"proposed_date" validate:"required"`
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req requestBody
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	proposed, err := time.Parse(time.RFC3339, req.ProposedDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "proposed_date must be RFC3339")
		return
	}
	created, err := h.service.Request(r.Context(), identity, RequestInput{
		AlumnusID:    req.AlumnusID,
		Topic:        req.Topic,
		Details:      req.Details,
		ProposedDate: proposed,
	})
	if err != nil {
		h.respondServiceError(w, "request seminar", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listOutgoing(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	items, err := h.service.ListOutgoing(r.Context(), identity)
	if err != nil {
		h.respondServiceError(w, "list outgoing seminars", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": items})
}

func (h *Handler) listIncoming(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	items, err := h.service.ListIncoming(r.Context(), identity)
	if err != nil {
		h.respondServiceError(w, "list incoming seminars", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": items})
}

type answerBody struct {
	Note string `json:"note" validate:"max=1000"`
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, true)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, false)
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request, accept bool) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}
	var body answerBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req, err := h.service.Answer(r.Context(), identity, id, accept, body.Note)
	if err != nil {
		h.respondServiceError(w, "answer seminar", err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, ErrAlreadyAnswered):
		httpx.Problem(w, http.StatusConflict, "Conflict", "request already answered")
	case errors.Is(err, httpx.ErrForbidden), errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
