package auth

import (
	"context"
	"testing"
	"time"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Issue("test_user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	actor, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if actor != "test_user" {
		t.Errorf("expected test_user, got %q", actor)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue("test_user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Issue("test_user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	if _, err := manager.Parse("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestActorContextRoundTrip(t *testing.T) {
	ctx := ContextWithActor(context.Background(), "alice")
	actor, ok := ActorFromContext(ctx)
	if !ok || actor != "alice" {
		t.Fatalf("expected alice, got %q (%v)", actor, ok)
	}

	if _, ok := ActorFromContext(context.Background()); ok {
		t.Error("empty context must not yield an actor")
	}
}
