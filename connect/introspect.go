package connect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/jrsteele09/go-identity-client/oauth2"
	"github.com/pkg/errors"
)

// IntrospectedToken is an active token as reported by the introspection
// endpoint. Times are zero when the server left them out.
type IntrospectedToken struct {
	Subject          string
	Issuer           string
	Scopes           []string
	IdentityProvider string
	AuthMethod       string
	TokenID          string
	SessionID        string
	TwoFaEnabled     bool
	HasAuthenticator bool
	NotBefore        time.Time
	ExpiresAt        time.Time
	IssuedAt         time.Time
	AuthTime         time.Time
	Audience         []string
	ClientID         string
}

// Introspector validates end user tokens using a dedicated introspection
// client.
type Introspector struct {
	endpoint     string
	clientID     string
	clientSecret string
	options
}

func NewIntrospector(endpoint, clientID, clientSecret string, opts ...Option) *Introspector {
	return &Introspector{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		options:      newOptions(opts),
	}
}

// Introspect fails with KindInvalidToken when the server rejects the request
// and with KindExpiredToken when the token is inactive or has no subject.
func (c *Introspector) Introspect(ctx context.Context, accessToken string) (*IntrospectedToken, error) {
	form := url.Values{oauth2.FieldToken: {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, identityerr.New(identityerr.KindIntrospect, 0, "", errors.Wrap(err, "Introspector.Introspect NewRequest"))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	status, body, err := c.do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("token introspection failed")
		return nil, identityerr.Wrap(identityerr.KindIntrospect, err)
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return nil, identityerr.New(identityerr.KindInvalidToken, status, body, nil)
	case !isSuccess(status):
		c.logger.Error().Int("status", status).Msg("token introspection rejected")
		return nil, identityerr.New(identityerr.KindIntrospect, status, body, nil)
	}

	var rsp oauth2.IntrospectionResponse
	if strings.TrimSpace(body) != "" {
		if err := json.Unmarshal([]byte(body), &rsp); err != nil {
			return nil, identityerr.New(identityerr.KindIntrospect, status, "", errors.Wrap(err, "Introspector.Introspect Unmarshal"))
		}
	}
	if !rsp.Active || rsp.Sub == nil || strings.TrimSpace(*rsp.Sub) == "" {
		return nil, identityerr.New(identityerr.KindExpiredToken, status, body, nil)
	}
	return introspectedToken(rsp), nil
}

// ProfileIDByToken returns the subject of an active token.
func (c *Introspector) ProfileIDByToken(ctx context.Context, accessToken string) (string, error) {
	t, err := c.Introspect(ctx, accessToken)
	if err != nil {
		return "", err
	}
	return t.Subject, nil
}

func introspectedToken(rsp oauth2.IntrospectionResponse) *IntrospectedToken {
	t := &IntrospectedToken{
		Subject:          valueOf(rsp.Sub),
		Issuer:           valueOf(rsp.Iss),
		Scopes:           []string{},
		IdentityProvider: valueOf(rsp.Idp),
		AuthMethod:       valueOf(rsp.Amr),
		TokenID:          valueOf(rsp.Jti),
		SessionID:        valueOf(rsp.Sid),
		TwoFaEnabled:     valueOf(rsp.TwoFaEnabled),
		HasAuthenticator: valueOf(rsp.HasAuthenticator),
		NotBefore:        unixTime(rsp.Nbf),
		ExpiresAt:        unixTime(rsp.Exp),
		IssuedAt:         unixTime(rsp.Iat),
		AuthTime:         unixTime(rsp.AuthTime),
		Audience:         []string(rsp.Aud),
		ClientID:         valueOf(rsp.ClientID),
	}
	if rsp.Scope != nil {
		t.Scopes = strings.Fields(*rsp.Scope)
	}
	return t
}

func unixTime(sec *int64) time.Time {
	if sec == nil {
		return time.Time{}
	}
	return time.Unix(*sec, 0).UTC()
}
