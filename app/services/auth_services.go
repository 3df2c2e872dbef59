package services

import (
	"context"
	"fmt"
	"time"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/auth"
)

// Token is a signed session token.
type Token struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// Login checks an employee code and password and issues a JWT carrying the
// user id and role. Unknown codes and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, employeeCode, password string) (*Token, error) {
	user, err := s.users.FindByEmployeeCode(ctx, employeeCode)
	if err != nil {
		return nil, storageErr(err)
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, denied("account %s is inactive", user.EmployeeCode)
	}

	token, exp, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("services: sign token: %w", err)
	}
	return &Token{AccessToken: token, TokenType: "bearer", ExpiresAt: exp, User: user}, nil
}
