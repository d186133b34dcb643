package realtime

import (
	"context"

	apperrors "github.com/onekeel/swarm/internal/errors"
)

// ErrInvalidToken is returned by verifiers for tokens that do not resolve
// to a user identity.
var ErrInvalidToken = apperrors.New("invalid token")

// TokenVerifier resolves a bearer token to a user identity. The token
// issuing service is an external collaborator.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// StaticTokenVerifier verifies tokens against a fixed token-to-user map.
// It ships as the default verifier until an identity provider is wired in.
type StaticTokenVerifier struct {
	tokens map[string]string
}

// NewStaticTokenVerifier creates a StaticTokenVerifier from a token-to-user map.
func NewStaticTokenVerifier(tokens map[string]string) *StaticTokenVerifier {
	copied := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		copied[token] = userID
	}
	return &StaticTokenVerifier{tokens: copied}
}

// Verify returns the user bound to the token or ErrInvalidToken.
func (v *StaticTokenVerifier) Verify(_ context.Context, token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", ErrInvalidToken
	}
	return userID, nil
}
