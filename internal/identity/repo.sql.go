package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushire/campushire/internal/shared"
)

// ErrEmailTaken indicates a signup against an existing email.
var ErrEmailTaken = errors.New("identity: email already registered")

// Repository defines persistence operations for accounts.
type Repository interface {
	CreateAccount(ctx context.Context, acc *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	MarkEmailVerified(ctx context.Context, id string) error
	SetAvatarKey(ctx context.Context, id, key string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, email, password_hash, role, first_name, last_name, avatar_key, email_verified, is_active, created_at, updated_at`

// CreateAccount inserts a new account row.
func (r *PGRepository) CreateAccount(ctx context.Context, acc *Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, role, first_name, last_name, email_verified, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
		acc.ID, acc.Email, acc.PasswordHash, string(acc.Role), acc.FirstName, acc.LastName, acc.EmailVerified,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// FindByID fetches an account by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// MarkEmailVerified flips the verification flag.
func (r *PGRepository) MarkEmailVerified(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetAvatarKey stores the uploaded avatar's object key.
func (r *PGRepository) SetAvatarKey(ctx context.Context, id, key string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET avatar_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var acc Account
	var role string
	err := row.Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &role, &acc.FirstName, &acc.LastName,
		&acc.AvatarKey, &acc.EmailVerified, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	acc.Role = shared.Role(role)
	return &acc, nil
}

var _ Repository = (*PGRepository)(nil)
