// Package identity wires the identity server clients together from
// configuration.
package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-identity-client/api"
	"github.com/jrsteele09/go-identity-client/connect"
	"github.com/jrsteele09/go-identity-client/internal/config"
	"github.com/jrsteele09/go-identity-client/locker"
	"github.com/jrsteele09/go-identity-client/oauth2"
	"github.com/jrsteele09/go-identity-client/scheduler"
	"github.com/jrsteele09/go-identity-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrMissingIdentityServer = errors.New("identity server URI or issuer is required")

// Client bundles everything a service needs to talk to the identity server.
type Client struct {
	Tokens       *connect.TokenClient
	Introspector *connect.Introspector
	UserInfo     *connect.UserInfoClient
	Holder       *token.ClientTokenHolder
	Profiles     *api.ProfileClient

	scheduler scheduler.Scheduler
	redis     *redis.Client
	logger    zerolog.Logger
}

type settings struct {
	logger     zerolog.Logger
	httpClient *http.Client
	scheduler  scheduler.Scheduler
	locker     locker.Locker
}

type Option func(*settings)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithHTTPClient replaces the client built from the configured timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// WithScheduler runs the token refresh job on s instead of a scheduler
// owned by the Client.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(st *settings) {
		st.scheduler = s
	}
}

// WithLocker overrides the refresh lock, including a configured Redis lock.
func WithLocker(l locker.Locker) Option {
	return func(s *settings) {
		s.locker = l
	}
}

// NewFromEnv builds a Client from environment variables.
func NewFromEnv(ctx context.Context, opts ...Option) (*Client, error) {
	return New(ctx, config.New(), opts...)
}

// New builds the identity clients described by cfg. Endpoints are
// discovered from the issuer when one is configured.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	st := settings{logger: log.Logger}
	for _, opt := range opts {
		opt(&st)
	}
	if cfg.GetIDSURI() == "" && cfg.GetIssuer() == "" {
		return nil, ErrMissingIdentityServer
	}
	if st.httpClient == nil {
		st.httpClient = connect.NewHTTPClient(cfg.GetConnectTimeout(), cfg.GetReadTimeout())
	}

	endpoints := connect.EndpointsFromBase(cfg.GetIDSURI())
	if issuer := cfg.GetIssuer(); issuer != "" {
		discovered, err := connect.Discover(ctx, issuer, st.httpClient)
		if err != nil {
			return nil, err
		}
		endpoints = discovered
	}

	c := &Client{logger: st.logger}
	connectOpts := []connect.Option{
		connect.WithHTTPClient(st.httpClient),
		connect.WithIPHeader(cfg.GetIPHeader()),
		connect.WithUserAgentHeader(cfg.GetUserAgentHeader()),
		connect.WithLogger(st.logger),
	}
	introspection := cfg.GetIntrospectionClient()
	c.Tokens = connect.NewTokenClient(endpoints.Token, connectOpts...)
	c.Introspector = connect.NewIntrospector(endpoints.Introspection, introspection.ID, introspection.Secret, connectOpts...)
	c.UserInfo = connect.NewUserInfoClient(endpoints.UserInfo, connectOpts...)

	apiClient := cfg.GetAPIClient()
	holderOpts := []token.HolderOption{
		token.WithCheckInterval(cfg.GetTokenCheckInterval()),
		token.WithServiceIP(cfg.GetServiceIP()),
		token.WithLogger(st.logger),
	}

	if st.locker == nil && cfg.GetRedisAddr() != "" {
		rdb, err := locker.DialRedis(ctx, locker.RedisConfig{
			Address:  cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		if err != nil {
			return nil, err
		}
		c.redis = rdb
		// The lock must outlive the slowest token request.
		st.locker = locker.NewRedis(rdb,
			locker.WithTTL(cfg.GetConnectTimeout()+cfg.GetReadTimeout()),
			locker.WithLogger(st.logger),
		)
		// Instances of the same client share one lock.
		holderOpts = append(holderOpts, token.WithKey("client-token-holder:"+apiClient.ID))
	}
	if st.locker != nil {
		holderOpts = append(holderOpts, token.WithLocker(st.locker))
	}

	if st.scheduler == nil {
		if cfg.GetScheduler() == config.SchedulerCron {
			c.scheduler = scheduler.NewCron(scheduler.WithLogger(st.logger))
		} else {
			c.scheduler = scheduler.NewTicker(scheduler.WithLogger(st.logger))
		}
		st.scheduler = c.scheduler
	}
	holderOpts = append(holderOpts, token.WithScheduler(st.scheduler))

	holder, err := token.NewClientTokenHolder(c.Tokens, token.Credentials{
		ClientID:     apiClient.ID,
		ClientSecret: apiClient.Secret,
		Scopes:       apiClient.Scopes,
		GrantType:    oauth2.GrantType(apiClient.GrantType),
	}, holderOpts...)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Holder = holder

	c.Profiles = api.NewProfileClient(cfg.GetAPIURI(), holder,
		api.WithAPIVersion(cfg.GetAPIVersion()),
		api.WithHTTPClient(st.httpClient),
		api.WithClientHeaders(cfg.GetIPHeader(), cfg.GetUserAgentHeader()),
		api.WithLogger(st.logger),
	)

	st.logger.Info().
		Str("token_endpoint", endpoints.Token).
		Str("client_id", apiClient.ID).
		Bool("distributed_lock", c.redis != nil).
		Msg("identity client ready")
	return c, nil
}

// AccessToken returns the service's own bearer token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.Holder.AccessToken(ctx)
}

// Close stops the token refresh job and releases owned connections.
func (c *Client) Close() error {
	if c.Holder != nil {
		c.Holder.Close()
	}
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Error().Err(err).Msg("failed to close redis")
			return err
		}
	}
	return nil
}
