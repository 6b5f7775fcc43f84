package repo

import (
	"context"
	"errors"

	dom "taskhub/internal/domain"
	"taskhub/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

// GetByID returns the user by id.
func (r *PGUserRepo) GetByID(ctx context.Context, id string) (dom.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns the user by email.
func (r *PGUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user and returns it.
func (r *PGUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRow(ctx, query, uuid.NewString(), u.Name, u.Email, u.PasswordHash))
	if utils.IsPGUniqueViolation(err) {
		return dom.User{}, ErrDuplicate
	}
	return out, err
}

// List returns every user ordered by name.
func (r *PGUserRepo) List(ctx context.Context) ([]dom.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Update applies a profile patch.
func (r *PGUserRepo) Update(ctx context.Context, id string, patch dom.UserPatch) (dom.User, error) {
	query := `
		UPDATE users SET
			name          = COALESCE($2::text, name),
			email         = COALESCE($3::text, email),
			password_hash = COALESCE($4::text, password_hash),
			updated_at    = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRow(ctx, query, id, patch.Name, patch.Email, patch.PasswordHash))
	if utils.IsPGUniqueViolation(err) {
		return dom.User{}, ErrDuplicate
	}
	return out, err
}

func scanUser(row pgx.Row) (dom.User, error) {
	var u dom.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.User{}, ErrNotFound
	}
	return u, err
}
