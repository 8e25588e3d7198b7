package token

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	xoauth2 "golang.org/x/oauth2"
)

// Token is an access token issued by the identity server. Values are never
// modified after they are built; a refresh replaces the whole Token.
//
// The zero Token is the "not yet fetched" sentinel: its access token is
// empty and ValidUntil is the zero time, so it is always expired.
type Token struct {
	AccessToken  string
	RefreshToken string // empty unless the server granted one
	TokenType    string
	// IssuedAt is taken just before the token request is sent, which makes
	// the effective lifetime slightly shorter than the server's.
	IssuedAt  time.Time
	ExpiresIn int // seconds
	Scopes    []string
}

// ValidUntil is IssuedAt plus ExpiresIn seconds.
func (t Token) ValidUntil() time.Time {
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Expired reports whether ValidUntil is before now.
func (t Token) Expired(now time.Time) bool {
	return t.ValidUntil().Before(now)
}

func (t Token) IsZero() bool {
	return t.AccessToken == "" && t.IssuedAt.IsZero()
}

// Claims decodes the access token as a JWT without verifying its signature.
// It fails for opaque tokens.
func (t Token) Claims() (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, claims); err != nil {
		return nil, errors.Wrap(err, "Token.Claims ParseUnverified")
	}
	return claims, nil
}

// OAuth2 converts t for use with golang.org/x/oauth2 transports.
func (t Token) OAuth2() *xoauth2.Token {
	return &xoauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ValidUntil(),
	}
}

func (t Token) clone() Token {
	t.Scopes = slices.Clone(t.Scopes)
	return t
}
