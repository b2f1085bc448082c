package auth

import (
	"errors"
	"testing"
)

const testSecret = "unit-test-secret"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "hunter2" {
		t.Error("HashPassword() returned plaintext")
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Error("VerifyPassword() = false for correct password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("VerifyPassword() = true for wrong password")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	tokenStr, err := GenerateToken("user-123", testSecret, 7)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ParseToken(tokenStr, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Error("token missing expiry or issued-at claim")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tokenStr, err := GenerateToken("user-123", testSecret, 7)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := ParseToken(tokenStr, "another-secret"); err == nil {
		t.Error("ParseToken() with wrong secret succeeded, want error")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tokenStr, err := GenerateToken("user-123", testSecret, -1)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := ParseToken(tokenStr, testSecret); err == nil {
		t.Error("ParseToken() accepted expired token, want error")
	}
}

func TestVerifyIdentity(t *testing.T) {
	tokenStr, err := GenerateToken("user-abc", testSecret, 7)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	got, err := VerifyIdentity(tokenStr, "user-abc", testSecret)
	if err != nil {
		t.Fatalf("VerifyIdentity() error = %v", err)
	}
	if got != "user-abc" {
		t.Errorf("VerifyIdentity() = %q, want %q", got, "user-abc")
	}
}

func TestVerifyIdentity_Mismatch(t *testing.T) {
	tokenStr, err := GenerateToken("user-abc", testSecret, 7)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := VerifyIdentity(tokenStr, "user-xyz", testSecret); !errors.Is(err, ErrIdentityMismatch) {
		t.Errorf("VerifyIdentity() error = %v, want ErrIdentityMismatch", err)
	}
}

func TestVerifyIdentity_GarbageToken(t *testing.T) {
	if _, err := VerifyIdentity("not.a.token", "user-abc", testSecret); err == nil {
		t.Error("VerifyIdentity() accepted malformed token, want error")
	}
}
