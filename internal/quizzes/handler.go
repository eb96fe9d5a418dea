package quizzes

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

// Handler wires quiz endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers quiz routes for students.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Post("/{id}/submit", h.submit)
	r.Get("/{id}/attempt", h.ownAttempt)
	r.Get("/{id}/leaderboard", h.leaderboard)
}

// MountStaffRoutes registers the placement-staff quiz management routes.
func (h *Handler) MountStaffRoutes(r chi.Router) {
	r.Post("/", h.create)
}

type questionRequest struct {
	Prompt        string   `json:"prompt" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,max=6,dive,required"`
	CorrectOption int      `json:"correct_option" validate:"gte=0"`
}

type createRequest struct {
	Title       string            `json:"title" validate:"required"`
	Topic       string            `json:"topic" validate:"required"`
	DurationMin int               `json:"duration_min" validate:"required,gt=0,lte=180"`
	Questions   []questionRequest `json:"questions" validate:"required,min=1,max=100,dive"`
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
	in := CreateInput{Title: req.Title, Topic: req.Topic, DurationMin: req.DurationMin}
	for _, q := range req.Questions {
		in.Questions = append(in.Questions, QuestionInput{Prompt: q.Prompt, Options: q.Options, CorrectOption: q.CorrectOption})
	}
	quiz, err := h.service.Create(r.Context(), identity, in)
	if err != nil {
		h.respondServiceError(w, "create quiz", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quiz)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.List(r.Context())
	if err != nil {
		h.respondServiceError(w, "list quizzes", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quiz id")
		return
	}
	quiz, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "show quiz", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quiz)
}

type submitRequest struct {
	Answers []int `json:"answers" validate:"required"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quiz id")
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	attempt, err := h.service.Submit(r.Context(), identity, id, req.Answers)
	if err != nil {
		h.respondServiceError(w, "submit quiz", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, attempt)
}

func (h *Handler) ownAttempt(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quiz id")
		return
	}
	attempt, err := h.service.OwnAttempt(r.Context(), identity, id)
	if err != nil {
		h.respondServiceError(w, "own attempt", err)
		return
	}
	httpx.JSON(w, http.StatusOK, attempt)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quiz id")
		return
	}
	entries, err := h.service.Leaderboard(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "leaderboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, ErrAlreadyAttempted):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "quiz already attempted")
	case errors.Is(err, ErrAnswerCount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, httpx.ErrForbidden), errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
