package oauth2

import (
	"strings"
)

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749.
type TokenResponse struct {
	// AccessToken is the bearer credential used to access protected resources.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token.
	// Example: "Bearer"
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Only present: when the server grants one (client_credentials usually does not)
	RefreshToken *string `json:"refresh_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600
	ExpiresIn int `json:"expires_in"`

	// Scope indicates the access token's granted permissions.
	// Example: "openid profile api.read"
	// Usage: Space-separated list of scopes, may be null
	Scope *string `json:"scope,omitempty"`
}

// Scopes splits the space separated scope into its parts in server order.
// Duplicates are kept; a missing scope yields an empty slice.
func (r TokenResponse) Scopes() []string {
	if r.Scope == nil {
		return []string{}
	}
	return strings.Fields(*r.Scope)
}

// JoinScopes encodes scopes the way the token endpoint expects them.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
