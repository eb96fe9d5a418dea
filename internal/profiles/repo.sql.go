package profiles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushire/campushire/internal/shared"
)

// ErrProfileExists indicates a second onboarding submission for a user.
var ErrProfileExists = errors.New("profiles: student profile already exists")

// Repository defines persistence operations for student profiles.
type Repository interface {
	CreateStudentProfile(ctx context.Context, p *StudentProfile) error
	GetStudentProfile(ctx context.Context, userID string) (*StudentProfile, error)
	StudentProfileExists(ctx context.Context, userID string) (bool, error)
	SetResumeKey(ctx context.Context, userID, key string) error
	MergeSkills(ctx context.Context, userID string, skills []string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateStudentProfile inserts the one-time onboarding record.
func (r *PGRepository) CreateStudentProfile(ctx context.Context, p *StudentProfile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO student_profiles (user_id, department, degree, graduation_year, registration_no, cgpa, skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.UserID, p.Department, p.Degree, p.GraduationYear, p.RegistrationNo, p.CGPA, p.Skills,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

// GetStudentProfile fetches a profile by user id.
func (r *PGRepository) GetStudentProfile(ctx context.Context, userID string) (*StudentProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, department, degree, graduation_year, registration_no, cgpa, skills, COALESCE(resume_key, ''), created_at, updated_at
		FROM student_profiles WHERE user_id = $1`, userID)
	var p StudentProfile
	err := row.Scan(&p.UserID, &p.Department, &p.Degree, &p.GraduationYear, &p.RegistrationNo,
		&p.CGPA, &p.Skills, &p.ResumeKey, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// StudentProfileExists answers the onboarding gate's existence query.
func (r *PGRepository) StudentProfileExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM student_profiles WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// SetResumeKey stores the uploaded resume's object key.
func (r *PGRepository) SetResumeKey(ctx context.Context, userID, key string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE student_profiles SET resume_key = $2, updated_at = NOW() WHERE user_id = $1`, userID, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MergeSkills unions scanner-extracted skills into the stored list.
func (r *PGRepository) MergeSkills(ctx context.Context, userID string, skills []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE student_profiles
		SET skills = ARRAY(SELECT DISTINCT unnest(skills || $2::text[]) ORDER BY 1), updated_at = NOW()
		WHERE user_id = $1`, userID, skills)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
