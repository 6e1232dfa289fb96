package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingExpiry is returned when the token carries no exp claim.
	ErrMissingExpiry = errors.New("token has no expiry")
)

// Inspector reads claims from tokens without verifying them.
type Inspector interface {
	// ExpiresAt returns the exp claim.
	ExpiresAt(token string) (time.Time, error)
	// Subject returns the sub claim as an account id.
	Subject(token string) (uint64, error)
	// Expired reports whether token expires within leeway of now. Unreadable tokens count as expired.
	Expired(token string, now time.Time, leeway time.Duration) bool
}

// Unverified implements Inspector with jwt.Parser.ParseUnverified.
type Unverified struct {
	parser *libJWT.Parser
}

// NewUnverified returns a token inspector.
func NewUnverified() *Unverified {
	return &Unverified{parser: libJWT.NewParser()}
}

func (u *Unverified) claims(token string) (*libJWT.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims libJWT.RegisteredClaims
	if _, _, err := u.parser.ParseUnverified(token, &claims); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	return &claims, nil
}

// ExpiresAt returns the exp claim.
func (u *Unverified) ExpiresAt(token string) (time.Time, error) {
	claims, err := u.claims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingExpiry
	}

	return claims.ExpiresAt.Time, nil
}

// Subject returns the sub claim as an account id.
func (u *Unverified) Subject(token string) (uint64, error) {
	claims, err := u.claims(token)
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.Join(ErrInvalidToken, err)
	}

	return id, nil
}

// Expired reports whether token is unusable at now+leeway.
func (u *Unverified) Expired(token string, now time.Time, leeway time.Duration) bool {
	exp, err := u.ExpiresAt(token)
	if err != nil {
		return true
	}

	return !now.Add(leeway).Before(exp)
}
