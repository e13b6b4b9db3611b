package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidTicket = errors.New("invalid ticket")
	ErrExpiredTicket = errors.New("ticket has expired")
)

// TicketLifetime is how long a realtime ticket stays valid. Tickets are
// minted right before the WebSocket connect, so the window is short.
const TicketLifetime = 60 * time.Second

// TicketClaims carries the authenticated identity into the WebSocket
// handshake, where cookies are awkward for cross-origin clients
type TicketClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateRealtimeTicket creates a short-lived signed ticket for username
func GenerateRealtimeTicket(username string) (string, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return "", fmt.Errorf("JWT_SECRET environment variable not set")
	}

	now := time.Now()
	claims := TicketClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TicketLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "studyhub",
			Subject:   username,
			Audience:  jwt.ClaimStrings{"realtime"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}

	return signedToken, nil
}

// ValidateRealtimeTicket validates a ticket and returns its claims
func ValidateRealtimeTicket(ticket string) (*TicketClaims, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	token, err := jwt.ParseWithClaims(ticket, &TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithAudience("realtime"), jwt.WithIssuer("studyhub"))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredTicket
		}
		return nil, fmt.Errorf("failed to parse ticket: %w", err)
	}

	if !token.Valid {
		return nil, ErrInvalidTicket
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || claims.Username == "" {
		return nil, ErrInvalidTicket
	}

	return claims, nil
}
