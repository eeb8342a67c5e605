package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sharederrors "github.com/focusnest/planner-service/shared/errors"
)

// Mode selects how bearer tokens are checked.
type Mode string

const (
	// ModeClerk verifies Clerk session JWTs against a JWKS endpoint.
	ModeClerk Mode = "clerk"
	// ModeNoop trusts the bearer token as-is. Local development only.
	ModeNoop Mode = "noop"
)

// Config captures the inputs required to initialize an authenticator.
type Config struct {
	Mode     Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// AuthenticatedUser is the identity resolved from a bearer token. Accounts are keyed by Email.
type AuthenticatedUser struct {
	Subject     string
	Email       string
	DisplayName string
	SessionID   string
	ExpiresAt   int64
	Token       string
}

// Verifier verifies a bearer token and returns the associated user context.
type Verifier interface {
	Verify(ctx context.Context, token string) (AuthenticatedUser, error)
}

// EmailHeader lets trusted callers supply the email when the token carries none.
const EmailHeader = "X-User-Email"

var (
	errMissingAuthHeader = errors.New("authorization header missing")
	errInvalidAuthHeader = errors.New("authorization header is malformed")
	errMissingEmail      = errors.New("token carries no email address")
)

type identityKey struct{}

// Middleware rejects requests without a verifiable identity. A nil verifier disables the check.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolve(r, verifier)
			if err != nil {
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), identity)))
		})
	}
}

func resolve(r *http.Request, verifier Verifier) (AuthenticatedUser, error) {
	token, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return AuthenticatedUser{}, err
	}
	identity, err := verifier.Verify(r.Context(), token)
	if err != nil {
		return AuthenticatedUser{}, err
	}
	if identity.Email == "" {
		identity.Email = strings.TrimSpace(r.Header.Get(EmailHeader))
	}
	if identity.Email == "" {
		return AuthenticatedUser{}, errMissingEmail
	}
	identity.Email = strings.ToLower(identity.Email)
	return identity, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errInvalidAuthHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errInvalidAuthHeader
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(sharederrors.ErrorResponse{
		Code:    sharederrors.CodeUnauthorized,
		Message: err.Error(),
	})
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	value, ok := ctx.Value(identityKey{}).(AuthenticatedUser)
	return value, ok
}

// NewVerifier constructs a Verifier matching the supplied configuration.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeClerk:
		return newClerkVerifier(cfg)
	case ModeNoop:
		return noopVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
