package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"superfoods-store/shared/pkg/db"
	"superfoods-store/shared/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersPG struct{ DB *pgxpool.Pool }

const userColumns = `id, first_name, last_name, email, password_hash, role, addresses, created_at, updated_at`

func (r *UsersPG) Create(ctx context.Context, u *models.User) error {
	addrs, err := json.Marshal(nonNilAddresses(u.Addresses))
	if err != nil {
		return err
	}
	err = r.DB.QueryRow(ctx, `
		insert into users (id, first_name, last_name, email, password_hash, role, addresses)
		values ($1, $2, $3, $4, $5, $6, $7::jsonb)
		returning created_at, updated_at
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.Role), string(addrs)).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if c, ok := db.UniqueViolation(err); ok {
		return &DuplicateError{Constraint: c}
	}
	return err
}

func (r *UsersPG) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.getOne(ctx, `select `+userColumns+` from users where id = $1`, id)
}

func (r *UsersPG) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, `select `+userColumns+` from users where email = $1`, email)
}

func (r *UsersPG) UpdatePassword(ctx context.Context, id, hash string) error {
	ct, err := r.DB.Exec(ctx, `update users set password_hash = $2, updated_at = now() where id = $1`, id, hash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UsersPG) UpdateAddresses(ctx context.Context, id string, addrs []models.Address) error {
	b, err := json.Marshal(nonNilAddresses(addrs))
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx, `update users set addresses = $2::jsonb, updated_at = now() where id = $1`, id, string(b))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UsersPG) SetRole(ctx context.Context, email string, role models.Role) error {
	ct, err := r.DB.Exec(ctx, `update users set role = $2, updated_at = now() where email = $1`, email, string(role))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UsersPG) getOne(ctx context.Context, query string, arg string) (models.User, error) {
	var (
		u     models.User
		role  string
		addrs []byte
	)
	err := r.DB.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &role, &addrs, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) || db.InvalidText(err) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	u.Role = models.Role(role)
	if err := json.Unmarshal(addrs, &u.Addresses); err != nil {
		return models.User{}, fmt.Errorf("decode addresses of user %s: %w", u.ID, err)
	}
	return u, nil
}

func nonNilAddresses(a []models.Address) []models.Address {
	if a == nil {
		return []models.Address{}
	}
	return a
}
