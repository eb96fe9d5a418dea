package seminars

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for seminar requests.
type Repository interface {
	Create(ctx context.Context, req *Request) (int64, error)
	Get(ctx context.Context, id int64) (*Request, error)
	ListForAlumnus(ctx context.Context, alumnusID string) ([]Request, error)
	ListForRequester(ctx context.Context, requesterID string) ([]Request, error)
	Answer(ctx context.Context, id int64, status, note string, answeredAt time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const requestColumns = `id, alumnus_id, requester_id, topic, COALESCE(details, ''), proposed_date, status, COALESCE(response_note, ''), created_at, COALESCE(answered_at, 'epoch'::timestamptz)`

// Create inserts a pending request.
func (r *PGRepository) Create(ctx context.Context, req *Request) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO seminar_requests (alumnus_id, requester_id, topic, details, proposed_date, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id`,
		req.AlumnusID, req.RequesterID, req.Topic, req.Details, req.ProposedDate, req.Status,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get fetches a request by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM seminar_requests WHERE id = $1`, id)
	return scanRequest(row)
}

// ListForAlumnus returns requests addressed to an alumnus, pending first.
func (r *PGRepository) ListForAlumnus(ctx context.Context, alumnusID string) ([]Request, error) {
	return r.list(ctx, `
		SELECT `+requestColumns+` FROM seminar_requests
		WHERE alumnus_id = $1
		ORDER BY status = 'pending' DESC, created_at DESC`, alumnusID)
}

// ListForRequester returns requests one user has sent.
func (r *PGRepository) ListForRequester(ctx context.Context, requesterID string) ([]Request, error) {
	return r.list(ctx, `
		SELECT `+requestColumns+` FROM seminar_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC`, requesterID)
}

// Answer resolves a pending request. The status guard in the WHERE clause
// makes a double answer lose the race instead of overwriting.
func (r *PGRepository) Answer(ctx context.Context, id int64, status, note string, answeredAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE seminar_requests
		SET status = $2, response_note = NULLIF($3, ''), answered_at = $4
		WHERE id = $1 AND status = $5`,
		id, status, note, answeredAt, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAnswered
	}
	return nil
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.AlumnusID, &req.RequesterID, &req.Topic, &req.Details,
		&req.ProposedDate, &req.Status, &req.ResponseNote, &req.CreatedAt, &req.AnsweredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.AnsweredAt.Unix() == 0 {
		req.AnsweredAt = time.Time{}
	}
	return &req, nil
}

var _ Repository = (*PGRepository)(nil)
