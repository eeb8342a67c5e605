// Package assistant wraps the generative model used by chat answers and plan drafting.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message sent as context.
type Turn struct {
	Role Role
	Text string
}

// Request is a single model call.
type Request struct {
	System  string
	Prompt  string
	History []Turn
}

// ErrUnavailable indicates no model is configured.
var ErrUnavailable = errors.New("assistant unavailable")

// Assistant encapsulates model-backed responses.
type Assistant interface {
	Respond(ctx context.Context, req Request) (string, error)
	Close() error
}

// Config wires Gemini access.
type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
}

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 1024
	maxInputRunes    = 4000
)

// GeminiAssistant talks to the Gemini API.
type GeminiAssistant struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGeminiAssistant returns an Assistant backed by Gemini.
func NewGeminiAssistant(ctx context.Context, cfg Config) (*GeminiAssistant, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key missing")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiAssistant{client: client, model: model, maxTokens: maxTokens}, nil
}

// Close releases underlying Gemini resources.
func (g *GeminiAssistant) Close() error {
	return nil
}

// Respond generates a reply using prior turns as context.
func (g *GeminiAssistant) Respond(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		contents = append(contents, genai.NewContentFromText(Sanitize(turn.Text), genaiRole(turn.Role)))
	}
	contents = append(contents, genai.NewContentFromText(Sanitize(req.Prompt), genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		TopP:            genai.Ptr(float32(0.95)),
		MaxOutputTokens: int32(g.maxTokens),
	}
	if strings.TrimSpace(req.System) != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", err
	}
	output := strings.TrimSpace(resp.Text())
	if output == "" {
		return "", errors.New("gemini returned empty response")
	}
	return output, nil
}

func genaiRole(role Role) genai.Role {
	if role == RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

var injectionPatterns = func() []*regexp.Regexp {
	phrases := []string{
		"ignore previous instructions",
		"forget all previous",
		"new instructions:",
		"system:",
		"you are now",
		"pretend you are",
	}
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(p)))
	}
	return out
}()

// Sanitize redacts common prompt-injection phrases and caps the input length.
func Sanitize(input string) string {
	out := input
	for _, re := range injectionPatterns {
		out = re.ReplaceAllString(out, "[redacted]")
	}
	if runes := []rune(out); len(runes) > maxInputRunes {
		out = string(runes[:maxInputRunes]) + "..."
	}
	return out
}

// TemplateAssistant stands in when no model is configured. Callers fall back to their own templates.
type TemplateAssistant struct{}

// NewTemplateAssistant returns an Assistant that always reports ErrUnavailable.
func NewTemplateAssistant() *TemplateAssistant {
	return &TemplateAssistant{}
}

func (TemplateAssistant) Respond(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}

// Close is a no-op for the template assistant.
func (TemplateAssistant) Close() error { return nil }

// Func adapts a function to Assistant; handy in tests.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Respond(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

func (Func) Close() error { return nil }
