package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errMissingSubject = errors.New("token missing subject claim")

// clerkClaims is the subset of a Clerk session token the planner reads.
type clerkClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

type clerkVerifier struct {
	jwks    *keyfunc.JWKS
	options []jwt.ParserOption
}

func newClerkVerifier(cfg Config) (Verifier, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("clerk JWKS URL is required")
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshInterval:   10 * time.Minute,
		RefreshTimeout:    5 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load JWKS: %w", err)
	}

	options := []jwt.ParserOption{jwt.WithLeeway(5 * time.Second), jwt.WithExpirationRequired()}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	return &clerkVerifier{jwks: jwks, options: options}, nil
}

func (v *clerkVerifier) Verify(_ context.Context, token string) (AuthenticatedUser, error) {
	var claims clerkClaims
	if _, err := jwt.ParseWithClaims(token, &claims, v.jwks.Keyfunc, v.options...); err != nil {
		return AuthenticatedUser{}, fmt.Errorf("token verification failed: %w", err)
	}
	if claims.Subject == "" {
		return AuthenticatedUser{}, errMissingSubject
	}

	user := AuthenticatedUser{
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		SessionID:   claims.SessionID,
		Token:       token,
	}
	if claims.ExpiresAt != nil {
		user.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return user, nil
}
