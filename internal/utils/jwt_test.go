package utils

import "testing"

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-123", "test-secret")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	claims, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("Expected user id user-123, got %q", claims.UserID)
	}
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-123", "test-secret")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Error("Expected parsing with the wrong secret to fail")
	}
}

func TestJWT_RejectsGarbage(t *testing.T) {
	if _, err := ParseJWT("not-a-token", "test-secret"); err == nil {
		t.Error("Expected parsing garbage to fail")
	}
}
