package referrals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for referrals.
type Repository interface {
	Create(ctx context.Context, ref *Referral) (int64, error)
	Get(ctx context.Context, id int64) (*Referral, error)
	ListActive(ctx context.Context) ([]Referral, error)
	ListByAlumnus(ctx context.Context, alumnusID string) ([]Referral, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const referralColumns = `id, company, role_title, description, COALESCE(apply_url, ''), COALESCE(contact_note, ''), status, posted_by, posted_at, updated_at`

// Create inserts a referral.
func (r *PGRepository) Create(ctx context.Context, ref *Referral) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO referrals (company, role_title, description, apply_url, contact_note, status, posted_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
		RETURNING id`,
		ref.Company, ref.RoleTitle, ref.Description, ref.ApplyURL, ref.ContactNote, ref.Status, ref.PostedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get fetches a referral by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Referral, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+referralColumns+` FROM referrals WHERE id = $1`, id)
	return scanReferral(row)
}

// ListActive returns open referrals, newest first.
func (r *PGRepository) ListActive(ctx context.Context) ([]Referral, error) {
	return r.list(ctx, `SELECT `+referralColumns+` FROM referrals WHERE status = $1 ORDER BY posted_at DESC`, StatusActive)
}

// ListByAlumnus returns everything one alumnus has posted.
func (r *PGRepository) ListByAlumnus(ctx context.Context, alumnusID string) ([]Referral, error) {
	return r.list(ctx, `SELECT `+referralColumns+` FROM referrals WHERE posted_by = $1 ORDER BY posted_at DESC`, alumnusID)
}

// SetStatus moves a referral between active and closed.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE referrals SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]Referral, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ref)
	}
	return out, rows.Err()
}

func scanReferral(row pgx.Row) (*Referral, error) {
	var ref Referral
	err := row.Scan(&ref.ID, &ref.Company, &ref.RoleTitle, &ref.Description, &ref.ApplyURL,
		&ref.ContactNote, &ref.Status, &ref.PostedBy, &ref.PostedAt, &ref.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

var _ Repository = (*PGRepository)(nil)
