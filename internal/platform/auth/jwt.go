// Package auth issues and verifies the bearer tokens that carry the acting user.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

const (
	// DefaultTTL is the token lifetime when none is configured.
	DefaultTTL = 8 * time.Hour
	// DefaultIssuer is the iss claim written into tokens.
	DefaultIssuer = "auto-loan-origination"
	minSecretLength = 32
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWeakSecret   = fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// IssuerOption customises an Issuer.
type IssuerOption func(*Issuer)

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer builds an issuer from a shared secret.
func NewIssuer(secret string, opts ...IssuerOption) (*Issuer, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	i := &Issuer{secret: []byte(secret), ttl: DefaultTTL, issuer: DefaultIssuer, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for actor.
func (i *Issuer) Issue(actor authz.Actor) (authz.Token, error) {
	if !actor.Authenticated() {
		return authz.Token{}, authz.ErrUnauthenticated
	}
	now := i.now()
	expires := now.Add(i.ttl)
	id := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(actor.ID, 10),
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return authz.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return authz.Token{Value: signed, ID: id, ExpiresAt: expires}, nil
}

// Parse verifies a token and returns the actor and token id it carries.
func (i *Issuer) Parse(raw string) (authz.Actor, string, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return authz.Actor{}, "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	id, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil {
		return authz.Actor{}, "", fmt.Errorf("%w: subject %q", ErrInvalidToken, parsed.Subject)
	}
	role, err := authz.ParseRole(parsed.Role)
	if err != nil {
		return authz.Actor{}, "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	actor := authz.Actor{ID: id, Role: role}
	if !actor.Authenticated() {
		return authz.Actor{}, "", ErrInvalidToken
	}
	return actor, parsed.ID, nil
}
