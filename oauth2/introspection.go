package oauth2

import "encoding/json"

// IntrospectionResponse is the body returned by the identity server's
// /connect/introspect endpoint (RFC 7662 plus server extensions).
// The 'active' field indicates the state of the token - if it's false, other fields may not be populated.
type IntrospectionResponse struct {
	Active           bool     `json:"active"`
	Sub              *string  `json:"sub,omitempty"`       // Profile ID the token was issued for
	Iss              *string  `json:"iss,omitempty"`       // Issuer
	Scope            *string  `json:"scope,omitempty"`     // Space separated scopes
	Idp              *string  `json:"idp,omitempty"`       // Identity provider
	Amr              *string  `json:"amr,omitempty"`       // Authentication method
	Jti              *string  `json:"jti,omitempty"`       // Token ID
	Sid              *string  `json:"sid,omitempty"`       // Session ID
	TwoFaEnabled     *bool    `json:"2fa_enabled,omitempty"`
	HasAuthenticator *bool    `json:"has_authenticator,omitempty"`
	Nbf              *int64   `json:"nbf,omitempty"`
	Exp              *int64   `json:"exp,omitempty"`
	Iat              *int64   `json:"iat,omitempty"`
	AuthTime         *int64   `json:"auth_time,omitempty"`
	Aud              Audience `json:"aud,omitempty"`
	ClientID         *string  `json:"client_id,omitempty"`
}

// UserInfoResponse is the body returned by /connect/userinfo.
type UserInfoResponse struct {
	Sub              string `json:"sub"`
	TwoFaEnabled     *bool  `json:"2fa_enabled,omitempty"`
	HasAuthenticator *bool  `json:"has_authenticator,omitempty"`
}

// Audience accepts both the single string and the array form of "aud".
type Audience []string

func (a *Audience) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = many
	return nil
}
