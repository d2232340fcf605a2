package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bilanchat/internal/app/user"
)

// CreateUserParams carries the fields of a new user account.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Nom          string
	Prenom       string
	Role         string
}

// UserRecord is a user row including the credential hash. It is only used by
// the authentication handlers; everything else works with the public identity.
type UserRecord struct {
	user.User
	PasswordHash string
}

// CreateUser inserts a new account and returns its public identity.
// A duplicate email surfaces as a unique violation (see db.IsUniqueViolation).
func (s *Store) CreateUser(ctx context.Context, params CreateUserParams) (user.User, error) {
	const query = `
INSERT INTO users (email, password_hash, role, nom, prenom)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, prenom, nom, email, role`

	var u user.User
	err := s.pool.QueryRow(ctx, query,
		params.Email, params.PasswordHash, params.Role, params.Nom, params.Prenom).
		Scan(&u.ID, &u.Prenom, &u.Nom, &u.Email, &u.Role)
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// GetUserByEmail returns the account registered under email, including its
// password hash for credential verification.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	const query = `
SELECT id, prenom, nom, email, role, password_hash
FROM users
WHERE email = $1`

	var rec UserRecord
	err := s.pool.QueryRow(ctx, query, email).
		Scan(&rec.ID, &rec.Prenom, &rec.Nom, &rec.Email, &rec.Role, &rec.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrNotFound
	}
	if err != nil {
		return UserRecord{}, fmt.Errorf("get user by email: %w", err)
	}

	return rec, nil
}

// GetUserByID returns a user's public identity.
func (s *Store) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	const query = `
SELECT id, prenom, nom, email, role
FROM users
WHERE id = $1`

	var u user.User
	err := s.pool.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Prenom, &u.Nom, &u.Email, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}

	return u, nil
}

// ListUsersByRole returns the public identities of every user holding role.
func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]user.User, error) {
	const query = `
SELECT id, prenom, nom, email, role
FROM users
WHERE role = $1
ORDER BY nom ASC, prenom ASC`

	rows, err := s.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Prenom, &u.Nom, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}
