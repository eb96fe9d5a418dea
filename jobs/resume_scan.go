package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campushire/campushire/internal/jobs"
	"github.com/campushire/campushire/internal/platform/objstore"
	"github.com/campushire/campushire/internal/profiles"
)

const resumeScanTimeout = 30 * time.Second

// ResumeScanJob sends an uploaded resume to the external skill extraction
// service and folds the returned skills into the student profile.
type ResumeScanJob struct {
	Profiles *profiles.Service
	Store    *objstore.Store
	APIURL   string
	HTTP     *http.Client
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewResumeScanJob wires dependencies for the scan handler.
func NewResumeScanJob(profileSvc *profiles.Service, store *objstore.Store, apiURL string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ResumeScanJob {
	return &ResumeScanJob{
		Profiles: profileSvc,
		Store:    store,
		APIURL:   apiURL,
		HTTP:     &http.Client{Timeout: resumeScanTimeout},
		Logger:   logger,
		Metrics:  metrics,
	}
}

type skillScanRequest struct {
	ResumeURL string `json:"resume_url"`
}

type skillScanResponse struct {
	Skills []string `json:"skills"`
}

// Handle processes TaskResumeScan tasks.
func (j *ResumeScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("resume scan: handler not configured")
	}
	if j.APIURL == "" {
		// No extraction service configured, nothing to do.
		return nil
	}
	var payload ResumeScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.UserID == "" || payload.ResumeKey == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskResumeScan)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	resumeURL, err := j.Store.PresignGet(ctx, payload.ResumeKey, resumeScanTimeout)
	if err != nil {
		resultErr = fmt.Errorf("resume scan: presign: %w", err)
		return resultErr
	}

	body, err := json.Marshal(skillScanRequest{ResumeURL: resumeURL})
	if err != nil {
		resultErr = err
		return resultErr
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.APIURL, strings.NewReader(string(body)))
	if err != nil {
		resultErr = err
		return resultErr
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.HTTP.Do(req)
	if err != nil {
		resultErr = fmt.Errorf("resume scan: call extraction service: %w", err)
		return resultErr
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		resultErr = fmt.Errorf("resume scan: extraction service returned %d", resp.StatusCode)
		return resultErr
	}
	var parsed skillScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		resultErr = fmt.Errorf("resume scan: decode response: %w", err)
		return resultErr
	}

	if err := j.Profiles.MergeSkills(ctx, payload.UserID, parsed.Skills); err != nil {
		resultErr = fmt.Errorf("resume scan: merge skills: %w", err)
		return resultErr
	}
	j.Metrics.AddSkillsExtracted(len(parsed.Skills))
	j.Logger.Info("resume scanned",
		slog.String("user_id", payload.UserID),
		slog.Int("skills", len(parsed.Skills)))
	return nil
}
