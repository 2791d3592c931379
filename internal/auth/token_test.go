package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"centavo/internal/core"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key-that-is-long-enough", time.Hour)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("got user id %q, want %q", userID, "user-123")
	}
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key-that-is-long-enough", -time.Minute)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key-that-is-long-enough", time.Hour)
	other := NewTokenIssuer("another-secret-key-that-is-longer", time.Hour)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestTokenTampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key-that-is-long-enough", time.Hour)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := issuer.Verify(tampered); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key-that-is-long-enough", time.Hour)

	for _, token := range []string{"", "not-a-token", strings.Repeat("a", 500)} {
		if _, err := issuer.Verify(token); !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("Verify(%q): got %v, want ErrUnauthorized", token, err)
		}
	}
}
