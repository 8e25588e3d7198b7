package connect_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-identity-client/connect"
	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/stretchr/testify/require"
)

func openIDServer(t *testing.T, document func(issuer string) map[string]any) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(document(srv.URL))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscover(t *testing.T) {
	t.Run("all endpoints advertised", func(t *testing.T) {
		srv := openIDServer(t, func(issuer string) map[string]any {
			return map[string]any{
				"issuer":                 issuer,
				"authorization_endpoint": issuer + "/authorize",
				"token_endpoint":         issuer + "/oauth/token",
				"introspection_endpoint": issuer + "/oauth/introspect",
				"userinfo_endpoint":      issuer + "/oauth/userinfo",
				"jwks_uri":               issuer + "/.well-known/jwks",
			}
		})

		endpoints, err := connect.Discover(context.Background(), srv.URL, srv.Client())
		require.NoError(t, err)
		require.Equal(t, connect.Endpoints{
			Token:         srv.URL + "/oauth/token",
			Introspection: srv.URL + "/oauth/introspect",
			UserInfo:      srv.URL + "/oauth/userinfo",
		}, endpoints)
	})

	t.Run("missing endpoints fall back to connect paths", func(t *testing.T) {
		srv := openIDServer(t, func(issuer string) map[string]any {
			return map[string]any{
				"issuer":         issuer,
				"token_endpoint": issuer + "/connect/token",
				"jwks_uri":       issuer + "/.well-known/jwks",
			}
		})

		endpoints, err := connect.Discover(context.Background(), srv.URL, srv.Client())
		require.NoError(t, err)
		require.Equal(t, connect.EndpointsFromBase(srv.URL), endpoints)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		srv := openIDServer(t, func(string) map[string]any {
			return map[string]any{"issuer": "https://someone-else.example.com"}
		})

		_, err := connect.Discover(context.Background(), srv.URL, srv.Client())
		require.ErrorIs(t, err, identityerr.ErrTransport)
	})
}

func TestEndpointsFromBase(t *testing.T) {
	require.Equal(t, connect.Endpoints{
		Token:         "https://ids.example.com/connect/token",
		Introspection: "https://ids.example.com/connect/introspect",
		UserInfo:      "https://ids.example.com/connect/userinfo",
	}, connect.EndpointsFromBase("https://ids.example.com/"))
}

func TestNewHTTPClient(t *testing.T) {
	client := connect.NewHTTPClient(time.Second, 2*time.Second)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.Equal(t, 2*time.Second, transport.ResponseHeaderTimeout)
	require.Equal(t, time.Second, transport.TLSHandshakeTimeout)
}
