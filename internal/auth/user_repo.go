package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"akstore/internal/apperr"
	"akstore/internal/db"
	"akstore/internal/domain/user"
)

type UserRepo struct {
	db *db.DB
}

func NewUserRepo(d *db.DB) *UserRepo {
	return &UserRepo{db: d}
}

const userColumns = `id, name, email, phone, addresses, role, created_at`

// Insert writes u with its password hash. Duplicate emails come back as Conflict.
func Insert(ctx context.Context, q db.Querier, u user.User, passwordHash string) error {
	addrs := u.Addresses
	if addrs == nil {
		addrs = []string{}
	}
	b, err := json.Marshal(addrs)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, addresses, role, created_at)
		VALUES (?,?,?,?,?,?,?,?)
	`, u.ID, u.Name, u.Email, u.Phone, passwordHash, string(b), string(u.Role), u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("email %s is already registered", u.Email)
	}
	return err
}

func (r *UserRepo) Create(ctx context.Context, u user.User, passwordHash string) (user.User, error) {
	if err := Insert(ctx, r.db, u, passwordHash); err != nil {
		return user.User{}, err
	}
	return r.ByID(ctx, u.ID)
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	return n > 0, err
}

// ByEmail returns the account and its password hash.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (user.User, string, error) {
	var hash string
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, email), &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, "", apperr.NotFoundf("user not found")
	}
	return u, hash, err
}

func (r *UserRepo) ByID(ctx context.Context, id string) (user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, apperr.NotFoundf("user not found")
	}
	return u, err
}

func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, email ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner, extra ...any) (user.User, error) {
	var (
		u     user.User
		addrs string
		role  string
	)
	dest := append([]any{&u.ID, &u.Name, &u.Email, &u.Phone, &addrs, &role, &u.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	if err := json.Unmarshal([]byte(addrs), &u.Addresses); err != nil {
		return user.User{}, fmt.Errorf("user %s addresses: %w", u.ID, err)
	}
	if u.Addresses == nil {
		u.Addresses = []string{}
	}
	return u, nil
}
