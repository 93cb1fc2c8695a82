package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jamalpur-chamber/chamber/internal/kvstore"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tests := []struct {
		name      string
		claims    jwt.MapClaims
		wantAdmin bool
		wantRole  string
	}{
		{"role admin", jwt.MapClaims{"role": "admin", "exp": exp.Unix()}, true, "admin"},
		{"isAdmin flag", jwt.MapClaims{"isAdmin": true}, true, ""},
		{"user", jwt.MapClaims{"role": "user", "id": "u1"}, false, "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Inspect(signed(t, tt.claims))
			if c.Admin != tt.wantAdmin || c.Role != tt.wantRole {
				t.Errorf("Inspect = %+v", c)
			}
		})
	}

	c := Inspect(signed(t, jwt.MapClaims{"id": "u1", "exp": exp.Unix()}))
	if c.Subject != "u1" {
		t.Errorf("Subject = %q", c.Subject)
	}
	if !c.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", c.ExpiresAt, exp)
	}
	if c.Expired(time.Now()) {
		t.Error("fresh token reported expired")
	}
}

func TestInspectMalformed(t *testing.T) {
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if c := Inspect(tok); c.Admin || c.Role != "" {
			t.Errorf("Inspect(%q) = %+v", tok, c)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(kvstore.NewMemory())

	if tok, err := s.Token(ctx); err != nil || tok != "" {
		t.Fatalf("Token before login = %q, %v", tok, err)
	}
	if s.IsAdmin(ctx) {
		t.Error("IsAdmin true while logged out")
	}

	user := &models.User{Identity: models.Identity{ID: "u1"}, Name: "Rahim", Role: "admin"}
	if err := s.Save(ctx, "tok", user); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if tok, _ := s.Token(ctx); tok != "tok" {
		t.Errorf("Token = %q", tok)
	}
	got, err := s.User(ctx)
	if err != nil || got == nil || got.Name != "Rahim" {
		t.Fatalf("User = %+v, %v", got, err)
	}
	if !s.IsAdmin(ctx) {
		t.Error("IsAdmin false for admin user")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tok, _ := s.Token(ctx); tok != "" {
		t.Errorf("Token after Clear = %q", tok)
	}
	if u, _ := s.User(ctx); u != nil {
		t.Errorf("User after Clear = %+v", u)
	}
}

func TestIsAdminFromTokenClaims(t *testing.T) {
	ctx := context.Background()
	s := New(kvstore.NewMemory())
	if err := s.Save(ctx, signed(t, jwt.MapClaims{"role": "admin"}), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.IsAdmin(ctx) {
		t.Error("IsAdmin false for admin token")
	}
}
