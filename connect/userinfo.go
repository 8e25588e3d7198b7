package connect

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/jrsteele09/go-identity-client/oauth2"
	"github.com/pkg/errors"
)

// UserInfo is the profile summary returned by the userinfo endpoint.
type UserInfo struct {
	ID               string
	TwoFaEnabled     bool
	HasAuthenticator bool
}

// UserInfoClient resolves end user tokens through the userinfo endpoint.
type UserInfoClient struct {
	endpoint string
	options
}

func NewUserInfoClient(endpoint string, opts ...Option) *UserInfoClient {
	return &UserInfoClient{
		endpoint: endpoint,
		options:  newOptions(opts),
	}
}

// UserInfo fails with KindExpiredOrInvalidToken when the server answers 401.
func (c *UserInfoClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, identityerr.New(identityerr.KindGetAccountByToken, 0, "", errors.Wrap(err, "UserInfoClient.UserInfo NewRequest"))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("userinfo request failed")
		return nil, identityerr.Wrap(identityerr.KindGetAccountByToken, err)
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, identityerr.New(identityerr.KindExpiredOrInvalidToken, status, body, nil)
	case !isSuccess(status):
		c.logger.Error().Int("status", status).Msg("userinfo request rejected")
		return nil, identityerr.New(identityerr.KindGetAccountByToken, status, body, nil)
	}

	var rsp oauth2.UserInfoResponse
	if err := json.Unmarshal([]byte(body), &rsp); err != nil {
		return nil, identityerr.New(identityerr.KindGetAccountByToken, status, "", errors.Wrap(err, "UserInfoClient.UserInfo Unmarshal"))
	}
	return &UserInfo{
		ID:               rsp.Sub,
		TwoFaEnabled:     valueOf(rsp.TwoFaEnabled),
		HasAuthenticator: valueOf(rsp.HasAuthenticator),
	}, nil
}

func (c *UserInfoClient) ProfileIDByToken(ctx context.Context, accessToken string) (string, error) {
	info, err := c.UserInfo(ctx, accessToken)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// ProfileIDResolver maps an end user access token to the profile it was
// issued for. Both Introspector and UserInfoClient implement it.
type ProfileIDResolver interface {
	ProfileIDByToken(ctx context.Context, accessToken string) (string, error)
}

var (
	_ ProfileIDResolver = (*Introspector)(nil)
	_ ProfileIDResolver = (*UserInfoClient)(nil)
)
