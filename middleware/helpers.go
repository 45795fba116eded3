package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimSubject = "sub"
	jwtClaimRole    = "role"
)

var errNoClaims = errors.New("user claims not found in context or invalid type")

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(principalContextKey).(jwt.MapClaims)
	if !ok {
		return "", errNoClaims
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := roleClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}

	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}

// GetPrincipalFromContext возвращает nil без ошибки для анонимного запроса.
func GetPrincipalFromContext(ctx context.Context) (*models.Principal, error) {
	claims, ok := ctx.Value(principalContextKey).(jwt.MapClaims)
	if !ok {
		return nil, nil
	}
	role, err := GetUserRoleFromContext(ctx)
	if err != nil {
		return nil, err
	}
	name, _ := claims[jwtClaimSubject].(string)
	return &models.Principal{Name: name, Role: role}, nil
}
