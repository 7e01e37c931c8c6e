package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "super-secret-key"
	issuer := "chatwire"
	validity := time.Hour
	auth := NewAuthenticator(secret, issuer, validity)

	userID := "user-123"
	email := "test@example.com"

	// Generate Token
	token, err := auth.GenerateToken(userID, email, "user")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if token == "" {
		t.Fatal("generated token is empty")
	}

	// Validate Token
	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("expected user ID %s, got %s", userID, claims.UserID)
	}
	if claims.Email != email {
		t.Errorf("expected email %s, got %s", email, claims.Email)
	}
	if claims.Role != "user" {
		t.Errorf("expected role user, got %s", claims.Role)
	}
	if claims.Issuer != issuer {
		t.Errorf("expected issuer %s, got %s", issuer, claims.Issuer)
	}
}

func TestExpiredToken(t *testing.T) {
	secret := "super-secret-key"
	auth := NewAuthenticator(secret, "chatwire", -time.Minute) // Expired immediately

	token, err := auth.GenerateToken("u1", "u1@example.com", "user")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	_, err = auth.ValidateToken(token)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestInvalidSignature(t *testing.T) {
	auth1 := NewAuthenticator("secret1", "chatwire", time.Hour)
	auth2 := NewAuthenticator("secret2", "chatwire", time.Hour)

	token, _ := auth1.GenerateToken("u1", "u1@example.com", "user")

	_, err := auth2.ValidateToken(token)
	if err == nil {
		t.Fatal("expected error for invalid signature, got nil")
	}
}
