// Package connect talks to the identity server's /connect endpoints: token
// issuance, token introspection and userinfo.
package connect

import (
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultIPHeader        = "X-Forwarded-For"
	DefaultUserAgentHeader = "User-Agent"
	RequestIDHeader        = "X-Request-ID"

	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 120 * time.Second

	tokenPath         = "/connect/token"
	introspectionPath = "/connect/introspect"
	userInfoPath      = "/connect/userinfo"
)

// Endpoints are the absolute URLs of the identity server endpoints.
type Endpoints struct {
	Token         string
	Introspection string
	UserInfo      string
}

// EndpointsFromBase derives the endpoints from the identity server base URI.
func EndpointsFromBase(idsURI string) Endpoints {
	base := strings.TrimRight(idsURI, "/")
	return Endpoints{
		Token:         base + tokenPath,
		Introspection: base + introspectionPath,
		UserInfo:      base + userInfoPath,
	}
}

// NewHTTPClient returns a client whose dials give up after connectTimeout
// and whose requests wait at most readTimeout for response headers.
func NewHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = readTimeout
	return &http.Client{Transport: transport}
}

type options struct {
	httpClient      *http.Client
	ipHeader        string
	userAgentHeader string
	classifier      *identityerr.Classifier
	logger          zerolog.Logger
	nowFunc         func() time.Time
}

type Option func(*options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithIPHeader sets the header carrying the end user's IP address.
func WithIPHeader(header string) Option {
	return func(o *options) {
		o.ipHeader = header
	}
}

func WithUserAgentHeader(header string) Option {
	return func(o *options) {
		o.userAgentHeader = header
	}
}

// WithClassifier replaces the rules mapping token endpoint error bodies to
// error kinds.
func WithClassifier(c *identityerr.Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = now
	}
}

func newOptions(opts []Option) options {
	o := options{
		ipHeader:        DefaultIPHeader,
		userAgentHeader: DefaultUserAgentHeader,
		classifier:      identityerr.DefaultClassifier(),
		logger:          log.Logger,
		nowFunc:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = NewHTTPClient(DefaultConnectTimeout, DefaultReadTimeout)
	}
	return o
}

// setClientHeaders forwards the end user's IP and, when known, user agent.
func (o options) setClientHeaders(h http.Header, ip, userAgent string) {
	if ip != "" {
		h.Set(o.ipHeader, ip)
	}
	if strings.TrimSpace(userAgent) != "" {
		h.Set(o.userAgentHeader, userAgent)
	}
}

// do sends req and reads the whole response body. Network failures and
// timeouts come back as KindTransport; a cancelled request context does not.
func (o options) do(req *http.Request) (int, string, error) {
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := o.httpClient.Do(req)
	if err != nil {
		err = errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
		if req.Context().Err() != nil {
			return 0, "", err
		}
		return 0, "", identityerr.New(identityerr.KindTransport, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", errors.Wrap(err, "reading response body")
	}
	return resp.StatusCode, string(body), nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// valueOf reads an optional response field, treating nil as the zero value.
func valueOf[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
