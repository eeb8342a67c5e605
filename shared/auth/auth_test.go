package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_NoopVerifierUsesEmailToken(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	var got AuthenticatedUser
	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer Ada@Example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "Ada@Example.com", got.Subject)
}

func TestMiddleware_RejectsMissingHeader(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_RequiresEmail(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-User-Email", "user@example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNewVerifier_UnknownMode(t *testing.T) {
	_, err := NewVerifier(Config{Mode: "basic"})
	require.Error(t, err)
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}

func TestMiddleware_UnauthorizedBody(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code":"unauthorized","message":"authorization header is malformed"}`, rec.Body.String())
}
