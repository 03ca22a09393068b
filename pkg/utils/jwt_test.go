package utils

import (
	"testing"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
}

func TestParseTokenInvalid(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ParseToken(token); err == nil {
			t.Errorf("ParseToken(%q) succeeded, want error", token)
		}
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(7)
	if err != nil {
		t.Fatal(err)
	}

	SetSecret("another-secret")
	defer SetSecret("dev-secret-change-me")

	if _, err := ParseToken(token); err == nil {
		t.Error("token signed with previous secret must not validate")
	}
}
