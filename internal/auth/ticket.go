package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const ticketIssuer = "studyvault-download"

var (
	// ErrTicketInvalid covers missing, malformed, expired or forged tickets.
	ErrTicketInvalid = errors.New("download ticket invalid")
	// ErrTicketObjectMismatch is returned when a valid ticket names another object.
	ErrTicketObjectMismatch = errors.New("download ticket issued for another object")
)

// TicketClaims binds a /download link to one user and one object key.
type TicketClaims struct {
	Object string `json:"obj"`
	jwt.RegisteredClaims
}

// TicketSigner mints and checks HS256 download tickets.
type TicketSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTicketSigner returns a signer for secret, which must be at least 32 bytes.
func NewTicketSigner(secret []byte) (*TicketSigner, error) {
	if len(secret) < 32 {
		return nil, errors.New("ticket secret must be at least 32 bytes")
	}
	return &TicketSigner{secret: secret, now: time.Now}, nil
}

// Issue returns a ticket for userID to fetch objectKey until ttl elapses.
func (s *TicketSigner) Issue(userID, objectKey string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := TicketClaims{
		Object: objectKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ticketIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Verify checks ticket and that it was minted for objectKey. It returns the
// user the ticket was issued to.
func (s *TicketSigner) Verify(ticket, objectKey string) (string, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return "", ErrTicketInvalid
	}
	var claims TicketClaims
	_, err := jwt.ParseWithClaims(ticket, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTicketInvalid, err)
	}
	if claims.Object != objectKey {
		return "", ErrTicketObjectMismatch
	}
	return claims.Subject, nil
}
