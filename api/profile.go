// Package api calls the identity server management API. Most calls are
// authorized with the service's own client token; the account self-service
// calls (2FA, authenticator, contact change) carry the end user's token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIVersion = "2.0"
	APIVersionHeader  = "x-api-version"

	userPath         = "/user/"
	revokeAccessPath = "/user/revokeaccess"
)

// Authorizer hands out HTTP clients that attach a bearer token to every
// request. *token.ClientTokenHolder implements it.
type Authorizer interface {
	HTTPClient(ctx context.Context, base *http.Client) *http.Client
}

// ProfileClient manages identity server accounts.
type ProfileClient struct {
	baseURI         string
	apiVersion      string
	ipHeader        string
	userAgentHeader string
	authorizer      Authorizer
	httpClient      *http.Client
	classifier      *identityerr.Classifier
	logger          zerolog.Logger
}

type Option func(*ProfileClient)

func WithAPIVersion(version string) Option {
	return func(c *ProfileClient) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets the client whose transport carries the authorized
// requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ProfileClient) {
		c.httpClient = client
	}
}

func WithClientHeaders(ipHeader, userAgentHeader string) Option {
	return func(c *ProfileClient) {
		c.ipHeader = ipHeader
		c.userAgentHeader = userAgentHeader
	}
}

// WithClassifier replaces the rules mapping error bodies to error kinds.
func WithClassifier(classifier *identityerr.Classifier) Option {
	return func(c *ProfileClient) {
		c.classifier = classifier
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *ProfileClient) {
		c.logger = logger
	}
}

func NewProfileClient(baseURI string, authorizer Authorizer, opts ...Option) *ProfileClient {
	c := &ProfileClient{
		baseURI:         strings.TrimRight(baseURI, "/"),
		apiVersion:      DefaultAPIVersion,
		ipHeader:        "X-Forwarded-For",
		userAgentHeader: "User-Agent",
		authorizer:      authorizer,
		httpClient:      http.DefaultClient,
		classifier:      identityerr.DefaultAPIClassifier(),
		logger:          log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetProfile loads the account with the given id.
func (c *ProfileClient) GetProfile(ctx context.Context, id string) (*Account, error) {
	var rsp accountResponse
	err := c.send(ctx, identityerr.KindGetAccount, request{
		method:   http.MethodGet,
		endpoint: c.userURI(id),
	}, &rsp)
	if err != nil {
		return nil, err
	}
	return rsp.toAccount(), nil
}

// Delete removes the account. A non-permanent delete leaves the account
// restorable on the server.
func (c *ProfileClient) Delete(ctx context.Context, id string, permanent bool) error {
	query := url.Values{"isPermanent": {strconv.FormatBool(permanent)}}
	return c.send(ctx, identityerr.KindDelete, request{
		method:   http.MethodDelete,
		endpoint: c.userURI(id) + "?" + query.Encode(),
	}, nil)
}

// RevokeAccess revokes every grant issued to the given accounts. ip and
// userAgent identify the end user on whose behalf the call is made.
func (c *ProfileClient) RevokeAccess(ctx context.Context, ids []string, ip, userAgent string) error {
	query := url.Values{"id": ids}
	endpoint := c.baseURI + revokeAccessPath
	if len(ids) > 0 {
		endpoint += "?" + query.Encode()
	}

	return c.send(ctx, identityerr.KindRevoke, request{
		method:   http.MethodDelete,
		endpoint: endpoint,
		headers: func(h http.Header) {
			if ip != "" {
				h.Set(c.ipHeader, ip)
			}
			if strings.TrimSpace(userAgent) != "" {
				h.Set(c.userAgentHeader, userAgent)
			}
		},
	}, nil)
}

// ErrMissingUserToken is returned by end user calls made without a token.
var ErrMissingUserToken = errors.New("end user access token is required")

// request describes one management API call. A non-nil body is sent as
// JSON. With asUser set the call is authorized by userToken instead of the
// service's client token.
type request struct {
	method    string
	endpoint  string
	body      any
	asUser    bool
	userToken string
	headers   func(http.Header)
}

func (c *ProfileClient) userURI(id string, segments ...string) string {
	uri := c.baseURI + userPath + url.PathEscape(id)
	for _, s := range segments {
		uri += "/" + s
	}
	return uri
}

// send runs r and decodes a successful response into out, when out is not
// nil.
func (c *ProfileClient) send(ctx context.Context, kind identityerr.Kind, r request, out any) error {
	status, body, err := c.do(ctx, r)
	if err != nil {
		return c.fail(kind, err)
	}
	if !isSuccess(status) {
		return c.reject(kind, status, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return identityerr.New(kind, status, "", errors.Wrapf(err, "ProfileClient %s %s Unmarshal", r.method, r.endpoint))
	}
	return nil
}

func (c *ProfileClient) do(ctx context.Context, r request) (int, string, error) {
	var payload io.Reader
	if r.body != nil {
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return 0, "", errors.Wrap(err, "ProfileClient Marshal")
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.endpoint, payload)
	if err != nil {
		return 0, "", errors.Wrap(err, "ProfileClient NewRequest")
	}
	req.Header.Set(APIVersionHeader, c.apiVersion)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.headers != nil {
		r.headers(req.Header)
	}

	client := c.httpClient
	if r.asUser {
		if strings.TrimSpace(r.userToken) == "" {
			return 0, "", ErrMissingUserToken
		}
		req.Header.Set("Authorization", "Bearer "+r.userToken)
	} else {
		client = c.authorizer.HTTPClient(ctx, c.httpClient)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", errors.Wrap(err, "reading response body")
	}
	return resp.StatusCode, string(body), nil
}

// fail keeps identity errors raised while authorizing the request, such as
// a failed client token refresh, and wraps anything else as kind.
func (c *ProfileClient) fail(kind identityerr.Kind, err error) error {
	c.logger.Error().Err(err).Stringer("kind", kind).Msg("identity api request failed")
	return identityerr.Wrap(kind, err)
}

// reject prefers a kind recognised from the body over the operation's kind.
func (c *ProfileClient) reject(kind identityerr.Kind, status int, body string) error {
	if classified := c.classifier.Classify(status, body); classified != nil {
		c.logger.Error().Int("status", status).Stringer("kind", classified.Kind).Msg("identity api request rejected")
		return classified
	}
	c.logger.Error().Int("status", status).Stringer("kind", kind).Msg("identity api request rejected")
	return identityerr.New(kind, status, body, nil)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
