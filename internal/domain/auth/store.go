package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/querier"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Role         string
	EmployeeID   string
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, email, password_hash, role, COALESCE(employee_id::text, '')
    FROM users
    WHERE lower(email) = lower($1) AND status = 'active'
  `, email).Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.Role, &user.EmployeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

// EnsureUser creates the user when the email is not taken yet.
func (s *Store) EnsureUser(ctx context.Context, tenantID, email, passwordHash, role string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (email) DO NOTHING
  `, tenantID, email, passwordHash, role)
	return err
}
