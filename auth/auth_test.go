package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewService(Config{Secret: "test-secret", Issuer: "clipwise", Audience: "events"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	token, err := svc.Issue("notifier", "events:write")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "notifier" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "notifier")
	}
	if claims.Scope != "events:write" {
		t.Errorf("Scope = %q, want %q", claims.Scope, "events:write")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer, _ := NewService(Config{Secret: "secret-a"})
	verifier, _ := NewService(Config{Secret: "secret-b"})

	token, err := issuer.Issue("notifier", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Validate(token); err == nil {
		t.Fatal("expected signature validation to fail")
	}
}

func TestValidate_Expired(t *testing.T) {
	svc, _ := NewService(Config{Secret: "test-secret", TokenTTL: -time.Minute})

	token, err := svc.Issue("notifier", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestValidate_Garbage(t *testing.T) {
	svc, _ := NewService(Config{Secret: "test-secret"})
	for _, tok := range []string{"", "garbage", strings.Repeat("a.", 3)} {
		if _, err := svc.Validate(tok); err == nil {
			t.Errorf("Validate(%q) should fail", tok)
		}
	}
}

func TestNewService_RequiresSecret(t *testing.T) {
	if _, err := NewService(Config{}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
