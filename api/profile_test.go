package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-identity-client/api"
	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/jrsteele09/go-identity-client/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   string
}

type testFixture struct {
	server   *httptest.Server
	last     *recordedRequest
	status   int
	body     string
	fetchErr error
	client   *api.ProfileClient
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{status: http.StatusOK, last: &recordedRequest{}}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.last.method = r.Method
		f.last.path = r.URL.Path
		f.last.query = r.URL.Query()
		f.last.header = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		f.last.body = string(body)
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}))
	t.Cleanup(f.server.Close)

	fetcher := token.FetcherFunc(func(ctx context.Context, req token.Request) (token.Token, error) {
		if f.fetchErr != nil {
			return token.Token{}, f.fetchErr
		}
		return token.Token{AccessToken: "service-token", TokenType: "Bearer", IssuedAt: time.Now(), ExpiresIn: 3600}, nil
	})
	holder, err := token.NewClientTokenHolder(fetcher, token.Credentials{ClientID: "api-client"},
		token.WithCheckInterval(time.Hour), token.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(holder.Close)

	f.client = api.NewProfileClient(f.server.URL+"/api/", holder,
		api.WithHTTPClient(f.server.Client()),
		api.WithLogger(zerolog.Nop()),
	)
	return f
}

func TestProfileClient_GetProfile(t *testing.T) {
	f := setupTestFixture(t)
	f.body = `{
		"id": "5b0c1e2a",
		"fullName": {"firstName": "Jane", "lastName": "Doe"},
		"email": "jane@example.com",
		"phoneNumber": "+441234567890",
		"claims": [{"type": "role", "value": "admin"}, {"type": "flag"}],
		"photo": "aGVsbG8="
	}`

	account, err := f.client.GetProfile(context.Background(), "5b0c1e2a")
	require.NoError(t, err)

	require.Equal(t, &api.Account{
		ID:          "5b0c1e2a",
		Name:        &api.Name{FirstName: "Jane", LastName: "Doe"},
		Email:       "jane@example.com",
		Phone:       "+441234567890",
		Claims:      []api.Claim{{Type: "role", Value: "admin"}, {Type: "flag"}},
		PhotoBase64: "aGVsbG8=",
	}, account)

	role, ok := account.Claim("role")
	require.True(t, ok)
	require.Equal(t, "admin", role)
	_, ok = account.Claim("missing")
	require.False(t, ok)

	assert.Equal(t, http.MethodGet, f.last.method)
	assert.Equal(t, "/api/user/5b0c1e2a", f.last.path)
	assert.Equal(t, "Bearer service-token", f.last.header.Get("Authorization"))
	assert.Equal(t, "2.0", f.last.header.Get(api.APIVersionHeader))
	assert.NotEmpty(t, f.last.header.Get("X-Request-ID"))

	t.Run("not found", func(t *testing.T) {
		f.status = http.StatusNotFound
		f.body = `{"message":"profile not found"}`

		_, err := f.client.GetProfile(context.Background(), "missing")
		require.ErrorIs(t, err, identityerr.ErrGetAccount)

		var idErr *identityerr.Error
		require.ErrorAs(t, err, &idErr)
		require.Equal(t, http.StatusNotFound, idErr.StatusCode)
		require.Equal(t, `{"message":"profile not found"}`, idErr.Body)
	})
}

func TestProfileClient_Delete(t *testing.T) {
	f := setupTestFixture(t)
	f.status = http.StatusNoContent

	require.NoError(t, f.client.Delete(context.Background(), "5b0c1e2a", true))
	assert.Equal(t, http.MethodDelete, f.last.method)
	assert.Equal(t, "/api/user/5b0c1e2a", f.last.path)
	assert.Equal(t, "true", f.last.query.Get("isPermanent"))

	require.NoError(t, f.client.Delete(context.Background(), "5b0c1e2a", false))
	assert.Equal(t, "false", f.last.query.Get("isPermanent"))

	f.status = http.StatusConflict
	require.ErrorIs(t, f.client.Delete(context.Background(), "5b0c1e2a", true), identityerr.ErrDelete)
}

func TestProfileClient_RevokeAccess(t *testing.T) {
	f := setupTestFixture(t)

	err := f.client.RevokeAccess(context.Background(), []string{"a", "b"}, "10.0.0.1", "Mozilla/5.0")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, f.last.method)
	assert.Equal(t, "/api/user/revokeaccess", f.last.path)
	assert.Equal(t, []string{"a", "b"}, f.last.query["id"])
	assert.Equal(t, "10.0.0.1", f.last.header.Get("X-Forwarded-For"))
	assert.Equal(t, "Mozilla/5.0", f.last.header.Get("User-Agent"))
	assert.Equal(t, "Bearer service-token", f.last.header.Get("Authorization"))

	f.status = http.StatusBadRequest
	err = f.client.RevokeAccess(context.Background(), []string{"a"}, "10.0.0.1", "")
	require.ErrorIs(t, err, identityerr.ErrRevoke)
}

func TestProfileClient_HolderFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.fetchErr = identityerr.New(identityerr.KindInvalidCredentials, http.StatusBadRequest, `{"error":"invalid_client"}`, nil)

	_, err := f.client.GetProfile(context.Background(), "5b0c1e2a")
	require.ErrorIs(t, err, identityerr.ErrInvalidCredentials)
	require.NotErrorIs(t, err, identityerr.ErrGetAccount)
	require.Empty(t, f.last.method)

	f.fetchErr = errors.New("connection refused")
	err = f.client.Delete(context.Background(), "5b0c1e2a", true)
	require.ErrorIs(t, err, identityerr.ErrUnknownToken)
}

func TestProfileClient_Unreachable(t *testing.T) {
	f := setupTestFixture(t)
	f.server.Close()

	_, err := f.client.GetProfile(context.Background(), "5b0c1e2a")
	require.ErrorIs(t, err, identityerr.ErrGetAccount)
}
