package admin

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	a := &Admin{ID: "adm-001", Username: "warden"}
	secret := "test-secret-key-for-jwt-signing"

	token, err := GenerateAccessToken(a, secret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateAccessToken() returned empty token")
	}

	claims, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.Subject != "adm-001" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "adm-001")
	}
	if claims.Username != "warden" {
		t.Errorf("Username = %q, want %q", claims.Username, "warden")
	}
	if claims.SessionID == "" {
		t.Error("SessionID should not be empty")
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		t.Error("newly generated token should not be expired")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	a := &Admin{ID: "adm-001", Username: "warden"}

	token, err := GenerateAccessToken(a, "correct-secret", 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	_, err = ParseToken(token, "wrong-secret")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a JWT", "not-a-valid-jwt"},
		{"wrong segment count", "abc.def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, "secret"); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken(%q) error = %v, want ErrTokenInvalid", tt.token, err)
			}
		})
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	a := &Admin{ID: "adm-001", Username: "warden"}

	token, err := GenerateAccessToken(a, "secret", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 14*time.Minute || ttl > 16*time.Minute {
		t.Errorf("default TTL = %v, want roughly 15 minutes", ttl)
	}
}
