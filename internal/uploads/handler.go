// Package uploads moves resumes and avatars into object storage and
// records the resulting keys on the owning records.
package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushire/campushire/internal/identity"
	"github.com/campushire/campushire/internal/platform/httpx"
	"github.com/campushire/campushire/internal/platform/objstore"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/shared"
)

const (
	maxResumeBytes = 5 << 20
	maxAvatarBytes = 2 << 20
	presignExpiry  = 15 * time.Minute
)

// ResumeScanEnqueuer hands an uploaded resume to the background skill
// scanner.
type ResumeScanEnqueuer interface {
	EnqueueResumeScan(ctx context.Context, userID, resumeKey string) error
}

// Handler wires upload endpoints.
type Handler struct {
	logger   *slog.Logger
	store    *objstore.Store
	profiles *profiles.Service
	identity *identity.Service
	scanner  ResumeScanEnqueuer
}

// NewHandler builds a Handler instance. scanner may be nil when no worker
// is deployed.
func NewHandler(logger *slog.Logger, store *objstore.Store, profileSvc *profiles.Service, identitySvc *identity.Service, scanner ResumeScanEnqueuer) *Handler {
	return &Handler{
		logger:   logger,
		store:    store,
		profiles: profileSvc,
		identity: identitySvc,
		scanner:  scanner,
	}
}

// MountStudentRoutes registers the resume routes.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.Post("/me/resume", h.uploadResume)
	r.Get("/me/resume", h.resumeURL)
}

// MountRoutes registers the avatar routes for any authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/me/avatar", h.uploadAvatar)
}

func (h *Handler) uploadResume(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file field required, max 5 MiB")
		return
	}
	defer file.Close()

	if !strings.EqualFold(header.Header.Get("Content-Type"), "application/pdf") {
		httpx.Problem(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "resume must be a PDF")
		return
	}
	key := fmt.Sprintf("resumes/%s.pdf", identity.ID)
	if err := h.store.Put(r.Context(), key, file, header.Size, "application/pdf"); err != nil {
		h.logger.Error("store resume", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if err := h.profiles.AttachResume(r.Context(), identity.ID, key); err != nil {
		h.logger.Error("attach resume", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if h.scanner != nil {
		if err := h.scanner.EnqueueResumeScan(r.Context(), identity.ID, key); err != nil {
			// Scan is best effort, the upload itself stands.
			h.logger.Warn("enqueue resume scan", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"resume_key": key})
}

func (h *Handler) resumeURL(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	profile, err := h.profiles.Get(r.Context(), identity.ID)
	if err != nil || profile.ResumeKey == "" {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no resume uploaded")
		return
	}
	url, err := h.store.PresignGet(r.Context(), profile.ResumeKey, presignExpiry)
	if err != nil {
		h.logger.Error("presign resume", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file field required, max 2 MiB")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		httpx.Problem(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "avatar must be an image")
		return
	}
	key := fmt.Sprintf("avatars/%s", identity.ID)
	if err := h.store.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		h.logger.Error("store avatar", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if err := h.identity.SetAvatar(r.Context(), identity.ID, key); err != nil {
		h.logger.Error("set avatar key", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"avatar_key": key})
}
