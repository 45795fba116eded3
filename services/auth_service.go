package services

import (
	"context"
	"crypto/subtle"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/Dosada05/tournament-betting/utils"
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*models.Principal, error)
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authService struct {
	adminUsername     string
	adminPasswordHash string
}

// NewAuthService authenticates the single administrator configured by
// ADMIN_USERNAME and ADMIN_PASSWORD_HASH.
func NewAuthService(adminUsername, adminPasswordHash string) AuthService {
	return &authService{
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Principal, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(s.adminUsername)) == 1
	// bcrypt проверяем всегда, чтобы время ответа не выдавало имя пользователя.
	passwordOK := utils.CheckPasswordHash(input.Password, s.adminPasswordHash)
	if !usernameOK || !passwordOK {
		return nil, ErrAuthInvalidCredentials
	}

	return &models.Principal{Name: s.adminUsername, Role: models.RoleAdmin}, nil
}
