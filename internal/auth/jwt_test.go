package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/config"
	"tripplanner/models"
)

type fakeAuthenticator struct {
	user *models.User
}

func (f fakeAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if f.user != nil && email == f.user.Email && password == "secret" {
		return f.user, nil
	}
	return nil, errors.New("invalid email or password")
}

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT(testKey, "user-1")
	require.NoError(t, err)

	claims, err := ParseJWT(testKey, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "api", claims.Subject)
}

func TestParseJWT_RejectsEmailTokens(t *testing.T) {
	token, err := NewEmailToken(testKey, PurposeActivate, testUser(), time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(testKey, token)
	assert.Error(t, err)
}

func TestParseJWT_RejectsExpired(t *testing.T) {
	claims := &Claims{
		UserID: "user-1",
		StandardClaims: jwt.StandardClaims{
			Subject:   "api",
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	_, err = ParseJWT(testKey, token)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerToken(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r.Header.Set("Authorization", "bearer abc.def")
	token, err := BearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	r.Header.Set("Authorization", "Basic xyz")
	_, err = BearerToken(r)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoginHandler(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "ada@example.com"}
	h := NewAuthHandlers(&config.Config{SecretKey: testKey}, fakeAuthenticator{user: user})

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token",
			strings.NewReader(`{"email":"ada@example.com","password":"secret"}`)))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		claims, err := ParseJWT(testKey, body["token"])
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)

		check := httptest.NewRequest(http.MethodGet, "/api/v1/auth/check", nil)
		check.Header.Set("Authorization", "Bearer "+body["token"])
		rec = httptest.NewRecorder()
		h.CheckAuthHandler(rec, check)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token",
			strings.NewReader(`{"email":"ada@example.com","password":"nope"}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("check without token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.CheckAuthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/check", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), "user-1"))
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}
