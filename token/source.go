package token

import (
	"context"
	"net/http"

	xoauth2 "golang.org/x/oauth2"
)

var _ xoauth2.TokenSource = (*ClientTokenHolder)(nil)

// Token implements oauth2.TokenSource. It behaves like AccessToken with a
// background context.
func (h *ClientTokenHolder) Token() (*xoauth2.Token, error) {
	return h.TokenSource(context.Background()).Token()
}

// TokenSource returns an oauth2.TokenSource whose requests use ctx.
func (h *ClientTokenHolder) TokenSource(ctx context.Context) xoauth2.TokenSource {
	return holderSource{ctx: ctx, holder: h}
}

// HTTPClient returns a client that authorizes every request with the
// holder's current bearer token. base may be nil.
//
// The holder is consulted on every request instead of going through
// oauth2.ReuseTokenSource, so proactive refreshes take effect immediately.
func (h *ClientTokenHolder) HTTPClient(ctx context.Context, base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &http.Client{
		Transport: &xoauth2.Transport{
			Source: h.TokenSource(ctx),
			Base:   base.Transport,
		},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}
}

type holderSource struct {
	ctx    context.Context
	holder *ClientTokenHolder
}

func (s holderSource) Token() (*xoauth2.Token, error) {
	t, err := s.holder.token(s.ctx)
	if err != nil {
		return nil, err
	}
	return t.OAuth2(), nil
}
