package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("secret")

func principalEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := GetPrincipalFromContext(r.Context())
		require.NoError(t, err)
		if p == nil {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(p.Name + ":" + string(p.Role)))
	})
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(secret, &models.Principal{Name: "root", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "root", claims[jwtClaimSubject])
	assert.Equal(t, "admin", claims[jwtClaimRole])

	_, err = ParseToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := IssueToken(secret, &models.Principal{Name: "root", Role: models.RoleAdmin}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{jwtClaimRole: "admin"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(secret, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	token, err := IssueToken(secret, &models.Principal{Name: "root", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	h := Authenticate(secret)(RequireRole(models.RoleAdmin)(principalEcho(t)))

	rec := serve(h, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root:admin", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer nope").Code)

	// RequireRole без Authenticate не пропускает запрос.
	assert.Equal(t, http.StatusUnauthorized, serve(RequireRole(models.RoleAdmin)(principalEcho(t)), "").Code)
}

func TestRequireRoleRejectsUnknownRole(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		jwtClaimSubject: "guest",
		jwtClaimRole:    "viewer",
		"exp":           time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	h := Authenticate(secret)(RequireRole(models.RoleAdmin)(http.NotFoundHandler()))
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer "+signed).Code)
}

func TestOptionalAuthenticate(t *testing.T) {
	h := OptionalAuthenticate(secret)(principalEcho(t))

	rec := serve(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer broken").Code)

	token, err := IssueToken(secret, &models.Principal{Name: "root", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "root:admin", serve(h, "Bearer "+token).Body.String())
}
