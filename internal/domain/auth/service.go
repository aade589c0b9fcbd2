package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	Store    UserStore
	Secret   string
	TokenTTL time.Duration
}

func NewService(store UserStore, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
	Role        string    `json:"role"`
	EmployeeID  string    `json:"employeeId,omitempty"`
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, TenantID: user.TenantID, Role: user.Role, EmployeeID: user.EmployeeID}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("userId", user.ID).Msg("update last login failed")
	}
	return LoginResult{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.TokenTTL),
		UserID:      user.ID,
		Role:        user.Role,
		EmployeeID:  user.EmployeeID,
	}, nil
}
