package util

import (
	"errors"
	"testing"
	"time"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"), time.Minute)

	token, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	subject, err := signer.Validate(token)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", subject)
	}
}

func TestTokenSigner_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenSigner([]byte("secret-a"), time.Minute)
	verifier := NewTokenSigner([]byte("secret-b"), time.Minute)

	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenSigner_RejectsExpired(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"), -time.Minute)

	token, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := signer.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenSigner_RejectsGarbage(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"), time.Minute)

	for _, token := range []string{"", "abc", "a.b", "a.b.c", "!!.!!.!!"} {
		if _, err := signer.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenSigner_RequiresSecret(t *testing.T) {
	signer := NewTokenSigner(nil, time.Minute)

	if _, err := signer.Issue("user-1"); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := signer.Validate("x.y.z"); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
