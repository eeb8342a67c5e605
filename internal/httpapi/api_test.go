package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/planner-service/internal/app"
	"github.com/focusnest/planner-service/internal/assistant"
	"github.com/focusnest/planner-service/internal/badges"
	"github.com/focusnest/planner-service/internal/chat"
	"github.com/focusnest/planner-service/internal/httpapi"
	"github.com/focusnest/planner-service/internal/learning"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/storage"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/internal/user"
	sharedauth "github.com/focusnest/planner-service/shared/auth"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
	"github.com/focusnest/planner-service/shared/server"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
	ops   = "ops@example.com"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	clock   *support.ManualClock
}

func newTestAPI(t *testing.T, limiter *httpapi.RateLimiter) *testAPI {
	t.Helper()
	clock := support.NewManualClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	responder := assistant.Func(func(_ context.Context, req assistant.Request) (string, error) {
		return "Here is a short answer about: " + req.Prompt, nil
	})

	services, err := app.Build(app.MemoryRepositories(), app.Deps{
		Clock:     clock,
		Blobs:     storage.NewMemoryStore(),
		Assistant: responder,
	})
	require.NoError(t, err)

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{Mode: sharedauth.ModeNoop})
	require.NoError(t, err)

	router := server.NewRouter("planner-test", server.Options{Datastore: "memory"}, func(r chi.Router) {
		httpapi.RegisterRoutes(r, verifier, services, httpapi.Options{
			IsAdmin: func(email string) bool { return email == ops },
			Limiter: limiter,
		})
	})
	return &testAPI{t: t, handler: router, clock: clock}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSignUpThenAskChargesFlatPrice(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/v1/me", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode[user.Profile](t, rec)
	assert.Equal(t, 50, profile.User.Credits)
	assert.Equal(t, alice, profile.User.Email)
	assert.Equal(t, 0, profile.Stats.CurrentStreak)
	assert.Empty(t, profile.Badges)

	rec = api.do(http.MethodPost, "/v1/chat", alice, map[string]any{"question": "What is spaced repetition?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[chat.AskResult](t, rec)
	assert.Equal(t, 5, res.Charged)
	assert.Equal(t, 45, res.Balance)
	assert.Contains(t, res.Reply.Content, "spaced repetition")

	rec = api.do(http.MethodGet, "/v1/credits", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 45, decode[map[string]int](t, rec)["balance"])

	// Signing in again does not grant twice.
	rec = api.do(http.MethodGet, "/v1/me", alice, nil)
	assert.Equal(t, 45, decode[user.Profile](t, rec).User.Credits)
}

func TestInsufficientCreditsRejectsWithoutSideEffects(t *testing.T) {
	api := newTestAPI(t, nil)
	api.do(http.MethodGet, "/v1/me", alice, nil)

	rec := api.do(http.MethodPost, "/v1/admin/credits/deduct", alice, map[string]any{"email": alice, "amount": 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/v1/admin/credits/deduct", ops, map[string]any{"email": alice, "amount": 47, "reason": "test"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode[map[string]any](t, rec)["balance"])

	rec = api.do(http.MethodPost, "/v1/chat", alice, map[string]any{"question": "hello"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, sharederrors.CodeInsufficientCredits, decode[sharederrors.ErrorResponse](t, rec).Code)

	rec = api.do(http.MethodGet, "/v1/chat/conversations", alice, nil)
	assert.Empty(t, decode[map[string][]chat.Conversation](t, rec)["items"])

	rec = api.do(http.MethodPost, "/v1/admin/credits/deduct", ops, map[string]any{"email": alice, "amount": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, rec)["balance"])

	rec = api.do(http.MethodPost, "/v1/admin/credits/grant", ops, map[string]any{"email": alice, "amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodPost, "/v1/sessions", alice, map[string]any{"source": "timer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[learning.Session](t, rec)
	assert.True(t, sess.Open())

	rec = api.do(http.MethodPost, "/v1/sessions/"+sess.ID+"/end", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	api.clock.Advance(90 * time.Minute)
	rec = api.do(http.MethodPost, "/v1/sessions/"+sess.ID+"/end", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ended := decode[learning.Session](t, rec)
	require.NotNil(t, ended.DurationMs)
	assert.Equal(t, int64(90*60*1000), *ended.DurationMs)

	rec = api.do(http.MethodPost, "/v1/sessions/"+sess.ID+"/end", alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, sharederrors.CodeAlreadyEnded, decode[sharederrors.ErrorResponse](t, rec).Code)

	rec = api.do(http.MethodGet, "/v1/stats", alice, nil)
	st := decode[stats.Stats](t, rec)
	assert.Equal(t, int64(90*60*1000), st.TotalLearningTimeMs)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, "2024-03-10", st.LastActiveDate)

	rec = api.do(http.MethodGet, "/v1/badges", alice, nil)
	var names []string
	for _, b := range decode[map[string][]badges.Badge](t, rec)["items"] {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"first-step", "first-hour"}, names)

	rec = api.do(http.MethodPost, "/v1/sessions/missing/end", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/v1/sessions", alice, map[string]any{"planId": "not-mine"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlansAndTodos(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodPost, "/v1/plans", alice, map[string]any{"topic": "Linear algebra"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.EqualValues(t, 45, created["balance"])
	planID := created["plan"].(map[string]any)["id"].(string)

	rec = api.do(http.MethodPost, "/v1/todos", alice, map[string]any{"planId": planID, "title": "Vectors", "dueDate": "2024-03-12"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/v1/todos", bob, map[string]any{"planId": planID, "title": "Steal"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/v1/todos/shift", alice, map[string]any{"planId": planID, "days": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	shift := decode[map[string]int](t, rec)
	assert.Equal(t, 1, shift["shifted"])
	assert.Equal(t, 40, shift["balance"])

	rec = api.do(http.MethodGet, "/v1/plans/youtube/cost?videos=3", alice, nil)
	assert.Equal(t, 8, decode[map[string]int](t, rec)["credits"])

	rec = api.do(http.MethodPost, "/v1/plans/youtube", alice, map[string]any{"playlist": "PL1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthAndRateLimit(t *testing.T) {
	limiter := httpapi.NewRateLimiter(httpapi.RateLimiterConfig{PerMinute: 1, Burst: 1}, nil)
	t.Cleanup(limiter.Stop)
	api := newTestAPI(t, limiter)

	rec := api.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/v1/chat", alice, map[string]any{"question": "one"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/v1/chat", alice, map[string]any{"question": "two"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = api.do(http.MethodPost, "/v1/chat", bob, map[string]any{"question": "mine"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
