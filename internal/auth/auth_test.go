package auth

import (
	"errors"
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	service := NewService("test-secret")
	service.RegisterAPICredentials("key", "secret")

	token, err := service.GenerateToken(Credentials{APIKey: "key", APISecret: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Token == "" {
		t.Fatal("expected a signed token")
	}

	claims, err := service.ValidateToken(token.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.ClientID != "key" {
		t.Errorf("expected client id key, got %q", claims.ClientID)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "sync" {
		t.Errorf("unexpected permissions: %v", claims.Permissions)
	}
}

func TestGenerateTokenRejectsBadCredentials(t *testing.T) {
	service := NewService("test-secret")
	service.RegisterAPICredentials("key", "secret")

	cases := []Credentials{
		{APIKey: "key", APISecret: "wrong"},
		{APIKey: "unknown", APISecret: "secret"},
		{},
	}
	for _, creds := range cases {
		if _, err := service.GenerateToken(creds); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("GenerateToken(%+v) = %v, want ErrInvalidCredentials", creds, err)
		}
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a")
	issuer.RegisterAPICredentials("key", "secret")
	verifier := NewService("secret-b")

	token, err := issuer.GenerateToken(Credentials{APIKey: "key", APISecret: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := verifier.ValidateToken(token.Token); err == nil {
		t.Error("expected validation to fail under a different secret")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	service := NewService("test-secret")
	if _, err := service.ValidateToken("not.a.token"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}
