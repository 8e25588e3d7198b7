package connect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/jrsteele09/go-identity-client/oauth2"
	"github.com/jrsteele09/go-identity-client/token"
	"github.com/pkg/errors"
)

// TokenClient requests tokens from the identity server token endpoint.
type TokenClient struct {
	endpoint string
	options
}

var _ token.Fetcher = (*TokenClient)(nil)

func NewTokenClient(endpoint string, opts ...Option) *TokenClient {
	return &TokenClient{
		endpoint: endpoint,
		options:  newOptions(opts),
	}
}

// Fetch posts the token request and converts the response. IssuedAt is the
// time the request was about to be sent.
func (c *TokenClient) Fetch(ctx context.Context, req token.Request) (token.Token, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(tokenForm(req).Encode()))
	if err != nil {
		return token.Token{}, identityerr.New(identityerr.KindUnknownToken, 0, "", errors.Wrap(err, "TokenClient.Fetch NewRequest"))
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	c.setClientHeaders(httpReq.Header, req.IP, req.UserAgent)

	issuedAt := c.nowFunc()
	status, body, err := c.do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("client_id", req.ClientID).Msg("token request failed")
		return token.Token{}, identityerr.Wrap(identityerr.KindUnknownToken, err)
	}

	if !isSuccess(status) {
		c.logger.Error().Int("status", status).Str("client_id", req.ClientID).Msg("token request rejected")
		if classified := c.classifier.Classify(status, body); classified != nil {
			return token.Token{}, classified
		}
		return token.Token{}, identityerr.New(identityerr.KindUnknownToken, status, body, nil)
	}
	if strings.TrimSpace(body) == "" {
		return token.Token{}, identityerr.New(identityerr.KindUnknownToken, status, body, nil)
	}

	var rsp oauth2.TokenResponse
	if err := json.Unmarshal([]byte(body), &rsp); err != nil {
		return token.Token{}, identityerr.New(identityerr.KindUnknownToken, status, "", errors.Wrap(err, "TokenClient.Fetch Unmarshal"))
	}
	if rsp.ExpiresIn <= 0 {
		c.logger.Error().Int("expires_in", rsp.ExpiresIn).Str("client_id", req.ClientID).Msg("token response without a usable lifetime")
		return token.Token{}, identityerr.New(identityerr.KindUnknownToken, status, body, errors.New("expires_in must be positive"))
	}

	t := token.Token{
		AccessToken: rsp.AccessToken,
		TokenType:   rsp.TokenType,
		IssuedAt:    issuedAt,
		ExpiresIn:   rsp.ExpiresIn,
		Scopes:      rsp.Scopes(),
	}
	if rsp.RefreshToken != nil {
		t.RefreshToken = *rsp.RefreshToken
	}
	return t, nil
}

func tokenForm(req token.Request) url.Values {
	grantType := req.GrantType
	if grantType == "" {
		grantType = oauth2.ClientCredentialsGrant
	}

	form := url.Values{}
	form.Set(oauth2.FieldClientID, req.ClientID)
	form.Set(oauth2.FieldClientSecret, req.ClientSecret)
	if len(req.Scopes) > 0 {
		form.Set(oauth2.FieldScope, oauth2.JoinScopes(req.Scopes))
	}
	form.Set(oauth2.FieldGrantType, string(grantType))

	optional := map[string]string{
		oauth2.FieldUsername:     req.Username,
		oauth2.FieldPassword:     req.Password,
		oauth2.FieldCode:         req.Code,
		oauth2.FieldRefreshToken: req.RefreshToken,
	}
	for field, value := range optional {
		if value != "" {
			form.Set(field, value)
		}
	}
	return form
}
