package connect_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-identity-client/connect"
	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/jrsteele09/go-identity-client/oauth2"
	"github.com/jrsteele09/go-identity-client/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type capturedRequest struct {
	method string
	path   string
	header http.Header
	form   url.Values
	query  url.Values
}

// fakeIdentityServer answers every request with the given status and body
// and records the last request it received.
func fakeIdentityServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.header = r.Header.Clone()
		captured.form = r.PostForm
		captured.query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTokenClient(srv *httptest.Server, opts ...connect.Option) *connect.TokenClient {
	opts = append([]connect.Option{
		connect.WithHTTPClient(srv.Client()),
		connect.WithNowFunc(func() time.Time { return sentAt }),
		connect.WithLogger(zerolog.Nop()),
	}, opts...)
	return connect.NewTokenClient(connect.EndpointsFromBase(srv.URL).Token, opts...)
}

func TestTokenClient_Fetch(t *testing.T) {
	t.Run("client credentials", func(t *testing.T) {
		srv, captured := fakeIdentityServer(t, http.StatusOK,
			`{"access_token":"abc","token_type":"Bearer","expires_in":3600,"scope":"api.write api.read api.read"}`)

		tk, err := newTokenClient(srv).Fetch(context.Background(), token.Request{
			ClientID:     "api-client",
			ClientSecret: "secret",
			Scopes:       []string{"api.write", "api.read"},
			IP:           "127.0.0.1",
			UserAgent:    "identity-test/1.0",
		})
		require.NoError(t, err)

		require.Equal(t, "abc", tk.AccessToken)
		require.Equal(t, "Bearer", tk.TokenType)
		require.Empty(t, tk.RefreshToken)
		require.Equal(t, 3600, tk.ExpiresIn)
		require.Equal(t, sentAt, tk.IssuedAt)
		require.Equal(t, []string{"api.write", "api.read", "api.read"}, tk.Scopes)

		assert.Equal(t, http.MethodPost, captured.method)
		assert.Equal(t, "/connect/token", captured.path)
		assert.Equal(t, "application/x-www-form-urlencoded", captured.header.Get("Content-Type"))
		assert.Equal(t, "127.0.0.1", captured.header.Get("X-Forwarded-For"))
		assert.Equal(t, "identity-test/1.0", captured.header.Get("User-Agent"))
		assert.NotEmpty(t, captured.header.Get(connect.RequestIDHeader))

		assert.Equal(t, "api-client", captured.form.Get("client_id"))
		assert.Equal(t, "secret", captured.form.Get("client_secret"))
		assert.Equal(t, "api.write api.read", captured.form.Get("scope"))
		assert.Equal(t, "client_credentials", captured.form.Get("grant_type"))
		assert.NotContains(t, captured.form, "username")
		assert.NotContains(t, captured.form, "refresh_token")
	})

	t.Run("password grant with custom headers", func(t *testing.T) {
		srv, captured := fakeIdentityServer(t, http.StatusOK,
			`{"access_token":"abc","refresh_token":"def","expires_in":60}`)

		tk, err := newTokenClient(srv,
			connect.WithIPHeader("X-Real-IP"),
			connect.WithUserAgentHeader("X-Client-Agent"),
		).Fetch(context.Background(), token.Request{
			ClientID:  "web",
			GrantType: oauth2.PasswordGrant,
			Username:  "jane@example.com",
			Password:  "hunter2",
			IP:        "10.1.2.3",
		})
		require.NoError(t, err)
		require.Equal(t, "def", tk.RefreshToken)
		require.Equal(t, []string{}, tk.Scopes)

		assert.Equal(t, "10.1.2.3", captured.header.Get("X-Real-IP"))
		assert.Empty(t, captured.header.Get("X-Client-Agent"))
		assert.NotContains(t, captured.form, "scope")
		assert.Equal(t, "password", captured.form.Get("grant_type"))
		assert.Equal(t, "jane@example.com", captured.form.Get("username"))
		assert.Equal(t, "hunter2", captured.form.Get("password"))
	})
}

func TestTokenClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"locked account", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Account is locked"}`, identityerr.ErrLocked},
		{"invalid client", http.StatusBadRequest, `{"error":"invalid_client"}`, identityerr.ErrInvalidCredentials},
		{"two factor", http.StatusBadRequest, `{"error_description":"use_2fa"}`, identityerr.ErrTwoFactorRequired},
		{"unclassified error", http.StatusInternalServerError, `{"error":"server_error"}`, identityerr.ErrUnknownToken},
		{"empty error body", http.StatusServiceUnavailable, ``, identityerr.ErrUnknownToken},
		{"empty success body", http.StatusOK, ``, identityerr.ErrUnknownToken},
		{"malformed success body", http.StatusOK, `{"access_token":`, identityerr.ErrUnknownToken},
		{"missing expires_in", http.StatusOK, `{"access_token":"abc","token_type":"Bearer"}`, identityerr.ErrUnknownToken},
		{"zero expires_in", http.StatusOK, `{"access_token":"abc","expires_in":0}`, identityerr.ErrUnknownToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeIdentityServer(t, tt.status, tt.body)

			_, err := newTokenClient(srv).Fetch(context.Background(), token.Request{ClientID: "api-client"})
			require.ErrorIs(t, err, tt.want)

			var idErr *identityerr.Error
			require.ErrorAs(t, err, &idErr)
			require.Equal(t, tt.status, idErr.StatusCode)
		})
	}

	t.Run("unreachable server", func(t *testing.T) {
		srv, _ := fakeIdentityServer(t, http.StatusOK, `{}`)
		client := newTokenClient(srv)
		srv.Close()

		_, err := client.Fetch(context.Background(), token.Request{ClientID: "api-client"})
		require.ErrorIs(t, err, identityerr.ErrTransport)
		require.NotErrorIs(t, err, identityerr.ErrUnknownToken)

		var idErr *identityerr.Error
		require.ErrorAs(t, err, &idErr)
		require.Zero(t, idErr.StatusCode)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, _ := fakeIdentityServer(t, http.StatusOK, `{}`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTokenClient(srv).Fetch(ctx, token.Request{ClientID: "api-client"})
		require.ErrorIs(t, err, identityerr.ErrUnknownToken)
		require.NotErrorIs(t, err, identityerr.ErrTransport)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTokenClient_AsHolderFetcher(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "machine-token",
			"token_type":   "Bearer",
			"expires_in":   300,
		})
	}))
	defer srv.Close()

	h, err := token.NewClientTokenHolder(newTokenClient(srv), token.Credentials{
		ClientID:     "api-client",
		ClientSecret: "secret",
	}, token.WithCheckInterval(time.Hour), token.WithLogger(zerolog.Nop()),
		token.WithNowFunc(func() time.Time { return sentAt }))
	require.NoError(t, err)
	defer h.Close()

	accessToken, err := h.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "machine-token", accessToken)
	require.Equal(t, sentAt.Add(300*time.Second), h.Current().ValidUntil())
	require.EqualValues(t, 1, requests.Load())
}
