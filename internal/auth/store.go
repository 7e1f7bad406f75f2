package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrTokenNotFound is returned when the token is not an admin token.
var ErrTokenNotFound = errors.New("token not found")

// AdminContext identifies the admin token a request authenticated with.
// It is attached to the request context after successful authentication.
type AdminContext struct {
	// TokenID is a short, non-reversible prefix of the token hash, safe to
	// log, or "jwt" for identity provider tokens.
	TokenID string
	// Subject is the JWT subject. Empty for static tokens.
	Subject string
}

// TokenStore validates admin bearer tokens.
type TokenStore interface {
	// ValidateToken returns ErrTokenNotFound if the token is not accepted.
	ValidateToken(ctx context.Context, token string) (*AdminContext, error)
}

// StaticTokenStore accepts a fixed set of tokens from configuration.
// Only SHA-256 hashes are held in memory.
type StaticTokenStore struct {
	hashes [][]byte
}

// NewStaticTokenStore hashes tokens and returns a store that accepts them.
func NewStaticTokenStore(tokens []string) *StaticTokenStore {
	s := &StaticTokenStore{hashes: make([][]byte, 0, len(tokens))}
	for _, t := range tokens {
		if t == "" {
			continue
		}
		sum := sha256.Sum256([]byte(t))
		s.hashes = append(s.hashes, sum[:])
	}
	return s
}

// ValidateToken compares the token's hash against every configured hash in
// constant time. All hashes are checked even after a match.
func (s *StaticTokenStore) ValidateToken(_ context.Context, token string) (*AdminContext, error) {
	sum := sha256.Sum256([]byte(token))

	matched := 0
	for _, h := range s.hashes {
		matched |= subtle.ConstantTimeCompare(sum[:], h)
	}
	if matched != 1 {
		return nil, ErrTokenNotFound
	}

	return &AdminContext{TokenID: hex.EncodeToString(sum[:4])}, nil
}

// MultiStore tries each store in order and accepts the first match.
type MultiStore []TokenStore

// ValidateToken returns the first store's acceptance. If none accepts, a
// store failure takes precedence over ErrTokenNotFound.
func (m MultiStore) ValidateToken(ctx context.Context, token string) (*AdminContext, error) {
	var firstErr error
	for _, s := range m {
		admin, err := s.ValidateToken(ctx, token)
		if err == nil {
			return admin, nil
		}
		if !errors.Is(err, ErrTokenNotFound) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrTokenNotFound
}

// HashToken returns the SHA-256 hash of token as a hex string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
