package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/campushire/campushire/internal/shared"
)

// Service handles student profile business logic.
type Service struct {
	repo  Repository
	caser cases.Caser
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, caser: cases.Title(language.English)}
}

// OnboardInput carries the mandatory onboarding form fields.
type OnboardInput struct {
	Department     string
	Degree         string
	GraduationYear int
	RegistrationNo string
	CGPA           float64
	Skills         []string
}

// Onboard creates the student profile record and re-reads it so the caller
// holds the persisted state, not the submitted form. A failed insert leaves
// no partial state behind.
func (s *Service) Onboard(ctx context.Context, identity *shared.Identity, input OnboardInput) (*StudentProfile, error) {
	if identity == nil || identity.Role != shared.RoleStudent {
		return nil, fmt.Errorf("profiles: onboarding is a student-only flow")
	}

	profile := &StudentProfile{
		UserID:         identity.ID,
		Department:     s.caser.String(strings.ToLower(strings.TrimSpace(input.Department))),
		Degree:         strings.TrimSpace(input.Degree),
		GraduationYear: input.GraduationYear,
		RegistrationNo: strings.ToUpper(strings.TrimSpace(input.RegistrationNo)),
		CGPA:           input.CGPA,
		Skills:         normalizeSkills(input.Skills),
	}
	if err := s.repo.CreateStudentProfile(ctx, profile); err != nil {
		return nil, err
	}

	stored, err := s.repo.GetStudentProfile(ctx, identity.ID)
	if err != nil {
		// The insert committed; return the submitted shape rather than
		// failing the admission.
		profile.CreatedAt = time.Now().UTC()
		profile.UpdatedAt = profile.CreatedAt
		return profile, nil
	}
	return stored, nil
}

// Get returns the student profile for a user id.
func (s *Service) Get(ctx context.Context, userID string) (*StudentProfile, error) {
	return s.repo.GetStudentProfile(ctx, userID)
}

// StudentProfileExists implements the onboarding gate's checker boundary.
func (s *Service) StudentProfileExists(ctx context.Context, userID string) (bool, error) {
	return s.repo.StudentProfileExists(ctx, userID)
}

// AttachResume stores the uploaded resume's object key on the profile.
func (s *Service) AttachResume(ctx context.Context, userID, key string) error {
	return s.repo.SetResumeKey(ctx, userID, key)
}

// MergeSkills folds scanner-extracted skills into the profile.
func (s *Service) MergeSkills(ctx context.Context, userID string, skills []string) error {
	skills = normalizeSkills(skills)
	if len(skills) == 0 {
		return nil
	}
	return s.repo.MergeSkills(ctx, userID, skills)
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}
	return out
}
