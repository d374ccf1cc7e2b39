package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	raw, err := m.Issue("42", "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tok, err := m.VerifyToken(context.Background(), raw)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if tok.UID != "42" || tok.Role != "admin" {
		t.Fatalf("unexpected token %+v", tok)
	}
}

func TestJWTManager_Expired(t *testing.T) {
	m, _ := NewJWTManager("test-secret", time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	raw, err := m.Issue("7", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := m.VerifyToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	issuer, _ := NewJWTManager("secret-a", time.Hour)
	verifier, _ := NewJWTManager("secret-b", time.Hour)
	raw, _ := issuer.Issue("1", "user")
	if _, err := verifier.VerifyToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_RejectsNoneAlgorithm(t *testing.T) {
	m, _ := NewJWTManager("test-secret", time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "1", "role": "admin"})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.VerifyToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_MissingUserID(t *testing.T) {
	m, _ := NewJWTManager("test-secret", time.Hour)
	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "user"}).SignedString([]byte("test-secret"))
	if _, err := m.VerifyToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Fatal("expected error")
	}
}
