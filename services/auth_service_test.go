package services

import (
	"context"
	"testing"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewAuthService("admin", string(hash))

	principal, err := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, principal.Role)
	assert.True(t, principal.IsAdmin())

	tests := []LoginInput{
		{Username: "admin", Password: "wrong"},
		{Username: "root", Password: "hunter2"},
		{Username: "", Password: ""},
	}
	for _, input := range tests {
		_, err := svc.Login(context.Background(), input)
		assert.ErrorIs(t, err, ErrAuthInvalidCredentials, "input %+v", input)
	}
}
