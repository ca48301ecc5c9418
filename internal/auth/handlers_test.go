package auth

import (
	"Shortr-Backend/internal/repository/memory"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthHandlers() (*AuthHandlers, *memory.MemStorage) {
	storage := memory.New()
	jwtService := newTestJWTService(time.Minute)
	// Minimum bcrypt cost keeps the tests fast.
	passwordService := NewPasswordServiceWithCost(bcrypt.MinCost)
	return NewAuthHandlers(storage, jwtService, passwordService, zap.NewNop()), storage
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthHandlers_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handlers, _ := newTestAuthHandlers()

		rec := postJSON(t, handlers.Register, "/api/auth/register", RegisterRequest{
			Email:    "User@Example.com",
			Password: "secret123",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "user@example.com", resp.User.Email, "email is normalized")
	})

	t.Run("duplicate_email_conflict", func(t *testing.T) {
		handlers, _ := newTestAuthHandlers()

		first := postJSON(t, handlers.Register, "/api/auth/register", RegisterRequest{Email: "user@example.com", Password: "secret123"})
		require.Equal(t, http.StatusCreated, first.Code)

		second := postJSON(t, handlers.Register, "/api/auth/register", RegisterRequest{Email: "user@example.com", Password: "other-secret"})
		assert.Equal(t, http.StatusConflict, second.Code)
	})

	t.Run("invalid_email", func(t *testing.T) {
		handlers, _ := newTestAuthHandlers()

		rec := postJSON(t, handlers.Register, "/api/auth/register", RegisterRequest{Email: "not-an-email", Password: "secret123"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short_password", func(t *testing.T) {
		handlers, _ := newTestAuthHandlers()

		rec := postJSON(t, handlers.Register, "/api/auth/register", RegisterRequest{Email: "user@example.com", Password: "abc"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandlers_Login(t *testing.T) {
	register := func(t *testing.T, handlers *AuthHandlers) {
		t.Helper()
		rec := postJSON(t, handlers.Register, "/api/auth/register", RegisterRequest{Email: "user@example.com", Password: "secret123"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("success", func(t *testing.T) {
		handlers, storage := newTestAuthHandlers()
		register(t, handlers)

		rec := postJSON(t, handlers.Login, "/api/auth/login", LoginRequest{Email: "user@example.com", Password: "secret123"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)

		// Login stamps the last login time.
		user, err := storage.GetUserByEmail(context.Background(), "user@example.com")
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("wrong_password", func(t *testing.T) {
		handlers, _ := newTestAuthHandlers()
		register(t, handlers)

		rec := postJSON(t, handlers.Login, "/api/auth/login", LoginRequest{Email: "user@example.com", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown_user", func(t *testing.T) {
		handlers, _ := newTestAuthHandlers()

		rec := postJSON(t, handlers.Login, "/api/auth/login", LoginRequest{Email: "nobody@example.com", Password: "secret123"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
