// Package identity resolves the current user from the stored access token.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jmezger/herdlog/internal/client/repositories/metadata"
	"github.com/jmezger/herdlog/internal/common"
)

// User is the resolved identity attached to submitted entries.
type User struct {
	ID string
}

// Provider resolves the identity of the current session. A missing or expired
// token yields an error; submission is blocked until the user signs in again.
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// Claims mirrors the token claims issued by the backend: the registered set
// plus the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenProvider implements Provider by reading the access token from the
// metadata store and parsing its claims. The backend signed the token; the
// client only extracts identity and checks expiry, it does not verify the
// signature (it never holds the signing key).
type TokenProvider struct {
	meta metadata.Repository
}

func NewTokenProvider(meta metadata.Repository) *TokenProvider {
	return &TokenProvider{meta: meta}
}

func (p *TokenProvider) CurrentUser(ctx context.Context) (*User, error) {
	raw, err := p.meta.Get(ctx, common.MetaKeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	if len(raw) == 0 {
		return nil, common.ErrNoUserID
	}
	return UserFromToken(string(raw))
}

// UserFromToken extracts the user id from an access token, rejecting expired
// or malformed tokens.
func UserFromToken(tokenString string) (*User, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrTokenExpired
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return nil, common.ErrNoUserID
	}
	return &User{ID: id}, nil
}
