package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := []byte("test-secret-key")

	token, err := GenerateToken(secret, "u-staff", "staff", "staff", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u-staff" || claims.Role != "staff" || claims.UserType != "staff" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken([]byte("secret1"), "u-1", "user", "student", time.Hour)
	if _, err := ValidateToken([]byte("secret2"), token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken([]byte("secret"), "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	secret := []byte("test")
	token, _ := GenerateToken(secret, "u-1", "user", "student", -time.Minute)
	if _, err := ValidateToken(secret, token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestReviewToken(t *testing.T) {
	secret := []byte("k")
	tok, err := GenerateReviewToken(secret, "u-1", "digest-a", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateReviewToken(secret, tok, "u-1", "digest-a"); err != nil {
		t.Fatalf("valid token refused: %v", err)
	}
	if err := ValidateReviewToken(secret, tok, "u-1", "digest-b"); err == nil {
		t.Error("changed checkout must be refused")
	}
	if err := ValidateReviewToken(secret, tok, "u-2", "digest-a"); err == nil {
		t.Error("another user's token must be refused")
	}
	// a session token is not a review token
	session, _ := GenerateToken(secret, "u-1", "user", "student", time.Minute)
	if err := ValidateReviewToken(secret, session, "u-1", ""); err == nil {
		t.Error("session token accepted as review token")
	}
}
