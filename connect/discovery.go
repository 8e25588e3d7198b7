package connect

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-identity-client/identityerr"
)

type discoveryClaims struct {
	IntrospectionEndpoint string `json:"introspection_endpoint"`
}

// Discover reads the issuer's OpenID configuration. Endpoints the document
// leaves out fall back to the /connect paths below the issuer.
func Discover(ctx context.Context, issuer string, client *http.Client) (Endpoints, error) {
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return Endpoints{}, identityerr.New(identityerr.KindTransport, 0, "", fmt.Errorf("failed to create OIDC provider: %w", err))
	}

	var claims discoveryClaims
	if err := provider.Claims(&claims); err != nil {
		return Endpoints{}, identityerr.New(identityerr.KindTransport, 0, "", fmt.Errorf("failed to read provider claims: %w", err))
	}

	endpoints := EndpointsFromBase(issuer)
	if tokenURL := provider.Endpoint().TokenURL; tokenURL != "" {
		endpoints.Token = tokenURL
	}
	if strings.TrimSpace(claims.IntrospectionEndpoint) != "" {
		endpoints.Introspection = claims.IntrospectionEndpoint
	}
	if userInfo := provider.UserInfoEndpoint(); userInfo != "" {
		endpoints.UserInfo = userInfo
	}
	return endpoints, nil
}
