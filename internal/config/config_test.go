package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/planner-service/internal/chat"
	sharedauth "github.com/focusnest/planner-service/shared/auth"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DataStoreMemory, cfg.DataStore)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, sharedauth.ModeNoop, cfg.Auth.Mode)
	assert.Equal(t, chat.PricingFlat, cfg.Chat.Pricing)
	assert.Equal(t, 20, cfg.RateLimit.PerMinute)
	assert.Equal(t, 256, cfg.Events.BufferSize)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATASTORE", "Postgres")
	t.Setenv("DATABASE_DSN", "postgres://planner@localhost/planner")
	t.Setenv("CHAT_PRICING", "estimated")
	t.Setenv("ADMIN_EMAILS", "Ops@Example.com, dev@example.com")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DataStorePostgres, cfg.DataStore)
	assert.Equal(t, chat.PricingEstimated, cfg.Chat.Pricing)
	assert.Equal(t, "g-key", cfg.Assistant.APIKey)
	assert.True(t, cfg.IsAdmin(" ops@example.com"))
	assert.False(t, cfg.IsAdmin("someone@example.com"))
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown datastore", env: map[string]string{"DATASTORE": "mongo"}},
		{name: "postgres without dsn", env: map[string]string{"DATASTORE": "postgres"}},
		{name: "firestore without project", env: map[string]string{"DATASTORE": "firestore"}},
		{name: "gcs without bucket", env: map[string]string{"STORAGE_BACKEND": "gcs"}},
		{name: "clerk without jwks", env: map[string]string{"AUTH_MODE": "clerk"}},
		{name: "bad pricing", env: map[string]string{"CHAT_PRICING": "auction"}},
		{name: "bad admin email", env: map[string]string{"ADMIN_EMAILS": "not-an-email"}},
		{name: "zero rate limit", env: map[string]string{"RATE_LIMIT_PER_MINUTE": "0"}},
		{name: "non numeric port", env: map[string]string{"PORT": "http"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
