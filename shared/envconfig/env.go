package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	validate = validator.New()

	mu     sync.RWMutex
	source = newSource()
)

func newSource() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// LoadFile merges a YAML/JSON/TOML file into the lookup chain. Environment variables keep precedence.
func LoadFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	v := newSource()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	source = v
	return nil
}

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(source.GetString(name)); value != "" {
		return value
	}
	return fallback
}

// GetInt parses an integer setting, falling back when missing or malformed.
func GetInt(name string, fallback int) int {
	raw := Get(name, "")
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}

// GetBool interprets common truthy spellings.
func GetBool(name string, fallback bool) bool {
	switch strings.ToLower(Get(name, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// GetList splits a comma-separated setting, dropping empty items.
func GetList(name string) []string {
	raw := Get(name, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MustGet returns the value of the requested environment variable or panics if it's empty.
func MustGet(name string) string {
	value := os.Getenv(name)
	if value == "" {
		panic(fmt.Sprintf("expected env %s to be set", name))
	}
	return value
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
