package token

import (
	"context"

	"github.com/jrsteele09/go-identity-client/oauth2"
)

// Request holds the parameters of a token endpoint call. Empty optional
// fields are left out of the request.
type Request struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	GrantType    oauth2.GrantType

	Username     string
	Password     string
	Code         string
	RefreshToken string

	// IP is forwarded to the identity server in the configured IP header.
	IP        string
	UserAgent string
}

// Fetcher exchanges credentials for a Token.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Token, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (Token, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (Token, error) {
	return f(ctx, req)
}
