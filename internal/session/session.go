// Package session keeps the bearer token and logged-in user in the kv store
// and derives the caller's role from the token's claims.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jamalpur-chamber/chamber/internal/kvstore"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

// Store reads and writes the persisted credentials.
type Store struct {
	kv kvstore.Store
}

// New wraps kv.
func New(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, ok, err := s.kv.Get(ctx, kvstore.KeyToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(v), nil
}

// User returns the stored user, or nil when none is saved.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	v, ok, err := s.kv.Get(ctx, kvstore.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(v, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// Save persists the token and, when non-nil, the user.
func (s *Store) Save(ctx context.Context, token string, user *models.User) error {
	if err := s.kv.Set(ctx, kvstore.KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if user == nil {
		return s.kv.Remove(ctx, kvstore.KeyUser)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.Set(ctx, kvstore.KeyUser, data); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Clear removes the token and user.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, kvstore.KeyToken); err != nil {
		return err
	}
	return s.kv.Remove(ctx, kvstore.KeyUser)
}

// IsAdmin reports whether the current credentials carry the admin role. The
// stored user wins; otherwise the token's claims decide.
func (s *Store) IsAdmin(ctx context.Context) bool {
	if u, err := s.User(ctx); err == nil && u != nil {
		if u.Admin() {
			return true
		}
	}
	tok, err := s.Token(ctx)
	if err != nil || tok == "" {
		return false
	}
	return Inspect(tok).Admin
}

// Claims is what the client can read from a bearer token without the signing
// key.
type Claims struct {
	Subject   string
	Role      string
	Admin     bool
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Inspect decodes tok's claims without verifying the signature. The backend
// verifies; the client only needs the role for room membership. Malformed
// tokens yield zero Claims.
func Inspect(tok string) Claims {
	tok = strings.TrimSpace(strings.TrimPrefix(tok, "Bearer "))
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return Claims{}
	}

	var c Claims
	c.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if c.Subject == "" {
		if id, ok := claims["id"].(string); ok {
			c.Subject = id
		}
	}
	if role, ok := claims["role"].(string); ok {
		c.Role = role
	}
	if isAdmin, ok := claims["isAdmin"].(bool); ok && isAdmin {
		c.Admin = true
	}
	if c.Role == "admin" {
		c.Admin = true
	}
	return c
}
