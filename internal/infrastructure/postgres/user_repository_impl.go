package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
	"github.com/starfolio/starfolio-api/internal/domain/repository"
)

// UserRepository stores each profile aggregate as a single JSONB document.
// Email, guest id and the guest flag are mirrored into columns for unique
// indexes and browse filtering; the password hash lives in its own column
// and never enters the document. Save rewrites the whole document, which
// gives the last-write-wins semantics the service layer assumes.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, email, guest_id, password_hash, is_guest, doc, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
	`, u.ID, u.Email, u.GuestID, u.PasswordHash, u.IsGuest, doc, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT doc, password_hash FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT doc, password_hash FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByGuestID(ctx context.Context, guestID string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT doc, password_hash FROM users WHERE guest_id = $1`, guestID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var doc []byte
	var hash string
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&doc, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return decode(doc, hash)
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, guest_id = NULLIF($3, ''), doc = $4, updated_at = $5
		WHERE id = $1
	`, u.ID, u.Email, u.GuestID, doc, u.UpdatedAt)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("save user %s: no document", u.ID)
	}
	return nil
}

func (r *UserRepository) ListPublic(ctx context.Context, excludeID string) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doc, password_hash FROM users
		WHERE is_guest = FALSE AND id <> $1
		ORDER BY created_at DESC
	`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.User{}
	for rows.Next() {
		var doc []byte
		var hash string
		if err := rows.Scan(&doc, &hash); err != nil {
			return nil, err
		}
		u, err := decode(doc, hash)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func decode(doc []byte, hash string) (*entity.User, error) {
	u := &entity.User{}
	if err := json.Unmarshal(doc, u); err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
