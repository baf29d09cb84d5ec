package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"backend-gravelatlas/internal/auth"
	"backend-gravelatlas/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func TestRunPrintsSignedToken(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Config{JWTSecret: "secret"}
	if err := run([]string{"-user", "rider-1", "-name", "Ada", "-ttl", "2h"}, cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	raw := strings.TrimSpace(out.String())
	var claims auth.Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "rider-1" || claims.Name != "Ada" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != 2*time.Hour {
		t.Fatalf("expected 2h lifetime, got %v", lifetime)
	}
}

func TestRunRejectsBadArgs(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret"}
	var out bytes.Buffer

	if err := run(nil, cfg, &out); !errors.Is(err, errNoUser) {
		t.Fatalf("expected missing user error, got %v", err)
	}
	if err := run([]string{"-user", "u", "-ttl", "-1h"}, cfg, &out); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
	if err := run([]string{"-bogus"}, cfg, &out); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
	if out.Len() != 0 {
		t.Fatalf("nothing must be printed on error, got %q", out.String())
	}
}
