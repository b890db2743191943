package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gowiki/gowiki/internal/config"
	"github.com/gowiki/gowiki/pkg/middleware"
)

// ErrNotConfigured is returned when Keycloak settings are incomplete.
var ErrNotConfigured = errors.New("oidc: keycloak url and client id are required")

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier creates a new OIDC verifier for the given issuer and client ID
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{provider: provider, verifier: verifier}, nil
}

// IssuerURL derives the issuer from Keycloak settings. Without a realm the
// URL is taken to be the issuer itself.
func IssuerURL(kc config.KeycloakConfig) string {
	if kc.Realm == "" {
		return kc.URL
	}
	return strings.TrimRight(kc.URL, "/") + "/realms/" + kc.Realm
}

// NewKeycloakVerifier builds a Verifier from Keycloak settings.
func NewKeycloakVerifier(ctx context.Context, kc config.KeycloakConfig) (*Verifier, error) {
	if kc.URL == "" || kc.ClientID == "" {
		return nil, ErrNotConfigured
	}
	return NewVerifier(ctx, IssuerURL(kc), kc.ClientID)
}

// Verify verifies the provided raw ID token using the provided context and returns a middleware.Token
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
