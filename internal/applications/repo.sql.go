package applications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for applications.
type Repository interface {
	Create(ctx context.Context, a *Application) (int64, error)
	Get(ctx context.Context, id int64) (*Application, error)
	ListByStudent(ctx context.Context, studentID string) ([]Application, error)
	ListByPosting(ctx context.Context, postingID int64) ([]Row, error)
	UpdateStatus(ctx context.Context, id int64, status, reviewedBy string) error
	CountByPosting(ctx context.Context, postingID int64) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const applicationColumns = `id, posting_id, student_id, status, cover_note, resume_key, applied_at, updated_at, COALESCE(reviewed_by, '')`

// Create inserts an application. A unique index on (posting_id, student_id)
// backs the one-application-per-posting rule.
func (r *PGRepository) Create(ctx context.Context, a *Application) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO applications (posting_id, student_id, status, cover_note, resume_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		a.PostingID, a.StudentID, a.Status, a.CoverNote, a.ResumeKey,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrAlreadyApplied
		}
		return 0, err
	}
	return id, nil
}

// Get fetches an application by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Application, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// ListByStudent returns a student's applications, newest first.
func (r *PGRepository) ListByStudent(ctx context.Context, studentID string) ([]Application, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE student_id = $1 ORDER BY applied_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ListByPosting returns applications for one posting joined with the
// applicant's account and profile, for staff review and export.
func (r *PGRepository) ListByPosting(ctx context.Context, postingID int64) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.posting_id, a.student_id, a.status, a.cover_note, a.resume_key,
		       a.applied_at, a.updated_at, COALESCE(a.reviewed_by, ''),
		       acc.first_name || ' ' || acc.last_name, acc.email,
		       sp.department, sp.cgpa, sp.registration_no
		FROM applications a
		JOIN accounts acc ON acc.id = a.student_id
		JOIN student_profiles sp ON sp.user_id = a.student_id
		WHERE a.posting_id = $1
		ORDER BY sp.cgpa DESC, a.applied_at ASC`, postingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		err := rows.Scan(&row.ID, &row.PostingID, &row.StudentID, &row.Status, &row.CoverNote,
			&row.ResumeKey, &row.AppliedAt, &row.UpdatedAt, &row.ReviewedBy,
			&row.StudentName, &row.StudentEmail, &row.Department, &row.CGPA, &row.RegistrationNo)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateStatus moves an application to a new status and records the reviewer.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status, reviewedBy string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE applications SET status = $2, reviewed_by = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1`, id, status, reviewedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByPosting returns how many applications a posting has received.
func (r *PGRepository) CountByPosting(ctx context.Context, postingID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE posting_id = $1`, postingID).Scan(&n)
	return n, err
}

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.PostingID, &a.StudentID, &a.Status, &a.CoverNote,
		&a.ResumeKey, &a.AppliedAt, &a.UpdatedAt, &a.ReviewedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ Repository = (*PGRepository)(nil)
