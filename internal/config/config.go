// Package config loads the planner runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/focusnest/planner-service/internal/chat"
	sharedauth "github.com/focusnest/planner-service/shared/auth"
	"github.com/focusnest/planner-service/shared/envconfig"
)

// Config encapsulates the runtime configuration for the planner service.
type Config struct {
	Port           string `validate:"required,numeric"`
	GCPProjectID   string
	DataStore      DataStore
	DatabaseDSN    string
	RequestTimeout time.Duration
	Auth           AuthConfig
	Firestore      FirestoreConfig
	Storage        StorageConfig
	Assistant      AssistantConfig
	Chat           ChatConfig
	YouTube        YouTubeConfig
	RateLimit      RateLimitConfig
	Events         EventsConfig
	AdminEmails    []string `validate:"dive,email"`
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps everything in process (local development and tests).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores documents in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
	// DataStorePostgres stores rows in PostgreSQL through gorm.
	DataStorePostgres DataStore = "postgres"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     sharedauth.Mode
	JWKSURL  string `validate:"omitempty,url"`
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	EmulatorHost string
	DatabaseID   string
}

// StorageBackend selects the blob store.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageGCS    StorageBackend = "gcs"
)

// StorageConfig contains blob storage settings.
type StorageConfig struct {
	Backend StorageBackend
	Bucket  string
}

// AssistantConfig configures the generative model. An empty key selects the template fallback.
type AssistantConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int `validate:"gte=0,lte=8192"`
}

// ChatConfig controls chat pricing and context.
type ChatConfig struct {
	Pricing         chat.Pricing
	ContextMessages int `validate:"gte=0,lte=100"`
}

// YouTubeConfig enables playlist import when APIKey is set.
type YouTubeConfig struct {
	APIKey string
}

// RateLimitConfig bounds AI-backed requests per user.
type RateLimitConfig struct {
	PerMinute int `validate:"gt=0"`
	Burst     int `validate:"gt=0"`
}

// EventsConfig sizes the asynchronous event dispatcher.
type EventsConfig struct {
	BufferSize int `validate:"gt=0"`
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	if err := envconfig.LoadFile(envconfig.Get("CONFIG_FILE", "")); err != nil {
		return Config{}, err
	}

	apiKey := envconfig.Get("GEMINI_API_KEY", envconfig.Get("GOOGLE_API_KEY", ""))
	cfg := Config{
		Port:           envconfig.Get("PORT", "8080"),
		GCPProjectID:   envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:      DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		DatabaseDSN:    envconfig.Get("DATABASE_DSN", ""),
		RequestTimeout: time.Duration(envconfig.GetInt("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		Auth: AuthConfig{
			Mode:     sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
			DatabaseID:   envconfig.Get("FIRESTORE_DATABASE_ID", ""),
		},
		Storage: StorageConfig{
			Backend: StorageBackend(strings.ToLower(envconfig.Get("STORAGE_BACKEND", string(StorageMemory)))),
			Bucket:  envconfig.Get("STORAGE_BUCKET", ""),
		},
		Assistant: AssistantConfig{
			APIKey:          apiKey,
			Model:           envconfig.Get("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxOutputTokens: envconfig.GetInt("CHAT_MAX_OUTPUT_TOKENS", 1024),
		},
		Chat: ChatConfig{
			Pricing:         chat.Pricing(strings.ToLower(envconfig.Get("CHAT_PRICING", string(chat.PricingFlat)))),
			ContextMessages: envconfig.GetInt("CHAT_CONTEXT_MESSAGES", 10),
		},
		YouTube: YouTubeConfig{
			APIKey: envconfig.Get("YOUTUBE_API_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			PerMinute: envconfig.GetInt("RATE_LIMIT_PER_MINUTE", 20),
			Burst:     envconfig.GetInt("RATE_LIMIT_BURST", 5),
		},
		Events: EventsConfig{
			BufferSize: envconfig.GetInt("EVENT_BUFFER_SIZE", 256),
		},
		AdminEmails: lower(envconfig.GetList("ADMIN_EMAILS")),
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	case DataStorePostgres:
		if cfg.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when DATASTORE=postgres")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.Storage.Backend {
	case StorageMemory:
		// no-op
	case StorageGCS:
		if strings.TrimSpace(cfg.Storage.Bucket) == "" {
			return fmt.Errorf("STORAGE_BUCKET is required when STORAGE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}

	switch cfg.Auth.Mode {
	case sharedauth.ModeClerk:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
		}
	case sharedauth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	switch cfg.Chat.Pricing {
	case chat.PricingFlat, chat.PricingEstimated:
	default:
		return fmt.Errorf("unsupported chat pricing: %s", cfg.Chat.Pricing)
	}

	return nil
}

// IsAdmin reports whether email may use the credit administration routes.
func (c Config) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

func lower(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}
