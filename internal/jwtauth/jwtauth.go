// Package jwtauth verifies RS256 admin JWTs against a JWKS endpoint, so
// admins can sign in through an identity provider instead of static tokens.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jccadmin/internal/auth"
)

// Claims are the JWT claims read from an admin token.
type Claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether perm is among the token's permissions.
func (c *Claims) HasPermission(perm string) bool {
	return slices.Contains(c.Permissions, perm)
}

// Config holds JWT verification settings.
type Config struct {
	Issuer   string // e.g. "https://jcc.eu.auth0.com/"
	Audience string
	// JWKSURL defaults to Issuer + ".well-known/jwks.json".
	JWKSURL string
	// Permission, when set, must be present in the token's permissions claim.
	Permission string
}

// Verifier checks admin JWTs. It implements auth.TokenStore.
type Verifier struct {
	issuer     string
	audience   string
	permission string
	jwks       *JWKSCache
}

// NewVerifier creates a new JWT verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}

	issuer := cfg.Issuer
	if !strings.HasSuffix(issuer, "/") {
		issuer += "/"
	}
	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = issuer + ".well-known/jwks.json"
	}

	return &Verifier{
		issuer:     issuer,
		audience:   cfg.Audience,
		permission: cfg.Permission,
		jwks:       NewJWKSCache(jwksURL),
	}, nil
}

// Verify parses tokenString, checks its signature against the JWKS and
// validates issuer, audience and expiry.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in token header")
		}
		return v.jwks.GetKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateToken accepts a verified token that carries the configured
// permission. Every rejection is reported as auth.ErrTokenNotFound.
func (v *Verifier) ValidateToken(ctx context.Context, token string) (*auth.AdminContext, error) {
	claims, err := v.Verify(ctx, token)
	if err != nil {
		slog.DebugContext(ctx, "admin jwt rejected", "error", err)
		return nil, auth.ErrTokenNotFound
	}
	if v.permission != "" && !claims.HasPermission(v.permission) {
		slog.WarnContext(ctx, "admin jwt lacks permission", "subject", claims.Subject, "permission", v.permission)
		return nil, auth.ErrTokenNotFound
	}
	return &auth.AdminContext{TokenID: "jwt", Subject: claims.Subject}, nil
}

// JWKSCache caches RSA signing keys fetched from a JWKS endpoint.
type JWKSCache struct {
	url        string
	mu         sync.RWMutex
	keys       map[string]any // kid -> public key
	lastFetch  time.Time
	cacheTTL   time.Duration
	httpClient *http.Client
}

// NewJWKSCache creates a new JWKS cache.
func NewJWKSCache(jwksURL string) *JWKSCache {
	return &JWKSCache{
		url:      jwksURL,
		keys:     make(map[string]any),
		cacheTTL: 10 * time.Minute,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetKey returns the public key for kid, refreshing the set when the key is
// unknown or the cache is stale. A stale cached key is used if refresh fails.
func (c *JWKSCache) GetKey(ctx context.Context, kid string) (any, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	stale := time.Since(c.lastFetch) > c.cacheTTL
	c.mu.RUnlock()

	if ok && !stale {
		return key, nil
	}

	if err := c.refresh(ctx, !ok); err != nil {
		if ok {
			slog.WarnContext(ctx, "JWKS refresh failed, using cached key", "error", err)
			return key, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	return key, nil
}

// JWKS represents a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

func (c *JWKSCache) refresh(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if !force && time.Since(c.lastFetch) < c.cacheTTL && len(c.keys) > 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := decodeJSON(resp.Body, &jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]any, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		publicKey, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			slog.WarnContext(ctx, "skipping unparseable JWKS key", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = publicKey
	}

	c.keys = keys
	c.lastFetch = time.Now()
	return nil
}
