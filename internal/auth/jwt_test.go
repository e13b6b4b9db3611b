package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRealtimeTicketRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	ticket, err := GenerateRealtimeTicket("alice")
	if err != nil {
		t.Fatalf("GenerateRealtimeTicket failed: %v", err)
	}

	claims, err := ValidateRealtimeTicket(ticket)
	if err != nil {
		t.Fatalf("ValidateRealtimeTicket failed: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("got username %q, want alice", claims.Username)
	}
	if claims.Subject != "alice" {
		t.Fatalf("got subject %q, want alice", claims.Subject)
	}
}

func TestRealtimeTicketWrongSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	ticket, err := GenerateRealtimeTicket("alice")
	if err != nil {
		t.Fatalf("GenerateRealtimeTicket failed: %v", err)
	}

	t.Setenv("JWT_SECRET", "a-different-secret")
	if _, err := ValidateRealtimeTicket(ticket); err == nil {
		t.Fatal("ticket signed with another secret must not validate")
	}
}

func TestRealtimeTicketRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := GenerateRealtimeTicket("alice"); err == nil {
		t.Fatal("expected an error without JWT_SECRET")
	}
	if _, err := ValidateRealtimeTicket("anything"); err == nil {
		t.Fatal("expected an error without JWT_SECRET")
	}
}

func TestRealtimeTicketExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	past := time.Now().Add(-2 * TicketLifetime)
	claims := TicketClaims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past.Add(TicketLifetime)),
			IssuedAt:  jwt.NewNumericDate(past),
			NotBefore: jwt.NewNumericDate(past),
			Issuer:    "studyhub",
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{"realtime"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ticket, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign ticket: %v", err)
	}

	if _, err := ValidateRealtimeTicket(ticket); !errors.Is(err, ErrExpiredTicket) {
		t.Fatalf("got %v, want ErrExpiredTicket", err)
	}
}

func TestRealtimeTicketWrongAudienceRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	now := time.Now()
	claims := TicketClaims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TicketLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "studyhub",
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{"api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ticket, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign ticket: %v", err)
	}

	if _, err := ValidateRealtimeTicket(ticket); err == nil {
		t.Fatal("ticket for another audience must not validate")
	}
}

func TestRealtimeTicketGarbageRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := ValidateRealtimeTicket("not.a.ticket"); err == nil {
		t.Fatal("garbage input must not validate")
	}
}
