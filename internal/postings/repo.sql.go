package postings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for postings.
type Repository interface {
	Create(ctx context.Context, p *Posting) (int64, error)
	Update(ctx context.Context, p *Posting) error
	Get(ctx context.Context, id int64) (*Posting, error)
	List(ctx context.Context, filter ListFilter) ([]Posting, int, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// ListFilter narrows a posting listing.
type ListFilter struct {
	Status  string
	Company string
	Limit   int
	Offset  int
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const postingColumns = `id, company, title, description, location, ctc_min_lpa, ctc_max_lpa, min_cgpa, departments, graduation_year, deadline, status, created_by, created_at, updated_at`

// Create inserts a posting and returns its id.
func (r *PGRepository) Create(ctx context.Context, p *Posting) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO postings (company, title, description, location, ctc_min_lpa, ctc_max_lpa, min_cgpa, departments, graduation_year, deadline, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.Company, p.Title, p.Description, p.Location, p.CTCMinLPA, p.CTCMaxLPA, p.MinCGPA,
		p.Departments, p.GraduationYear, p.Deadline, p.Status, p.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites the mutable posting fields.
func (r *PGRepository) Update(ctx context.Context, p *Posting) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE postings
		SET company = $2, title = $3, description = $4, location = $5, ctc_min_lpa = $6, ctc_max_lpa = $7,
		    min_cgpa = $8, departments = $9, graduation_year = $10, deadline = $11, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Company, p.Title, p.Description, p.Location, p.CTCMinLPA, p.CTCMaxLPA,
		p.MinCGPA, p.Departments, p.GraduationYear, p.Deadline,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a posting by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Posting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postingColumns+` FROM postings WHERE id = $1`, id)
	return scanPosting(row)
}

// List returns postings matching the filter plus the total count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Posting, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Company != "" {
		args = append(args, "%"+filter.Company+"%")
		where = append(where, fmt.Sprintf("company ILIKE $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM postings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM postings WHERE %s ORDER BY deadline ASC, id DESC LIMIT $%d OFFSET $%d`,
		postingColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SetStatus moves a posting between open and closed.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE postings SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPosting(row pgx.Row) (*Posting, error) {
	var p Posting
	err := row.Scan(&p.ID, &p.Company, &p.Title, &p.Description, &p.Location,
		&p.CTCMinLPA, &p.CTCMaxLPA, &p.MinCGPA, &p.Departments, &p.GraduationYear,
		&p.Deadline, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ Repository = (*PGRepository)(nil)
