package oauth2

// GrantType represents the OAuth 2.0 grant type sent to the token endpoint.
// Determines which credentials accompany the token request.
type GrantType string

const (
	// ClientCredentialsGrant allows machine-to-machine authentication.
	// Used in: the client token holder (no user context)
	// Token request includes: client_id, client_secret, scope
	// Returns: access_token (usually no refresh_token)
	ClientCredentialsGrant GrantType = "client_credentials"

	// PasswordGrant exchanges a user's username and password for tokens.
	// Token request includes: client_id, client_secret, username, password, scope
	// Errors: the identity server answers with 2FA / authenticator / locked messages
	PasswordGrant GrantType = "password"

	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client_id, client_secret
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Token request includes: refresh_token, client_id, client_secret
	RefreshTokenGrant GrantType = "refresh_token"
)

// Form field names used on the token and introspection endpoints.
const (
	FieldClientID     = "client_id"
	FieldClientSecret = "client_secret"
	FieldScope        = "scope"
	FieldGrantType    = "grant_type"
	FieldUsername     = "username"
	FieldPassword     = "password"
	FieldCode         = "code"
	FieldRefreshToken = "refresh_token"
	FieldToken        = "token"
)
