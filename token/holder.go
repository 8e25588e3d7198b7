package token

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/jrsteele09/go-identity-client/locker"
	"github.com/jrsteele09/go-identity-client/oauth2"
	"github.com/jrsteele09/go-identity-client/scheduler"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	refreshTaskName      = "client-token-holder"
	defaultCheckInterval = time.Second
	defaultServiceIP     = "127.0.0.1"
)

var (
	ErrMissingFetcher  = errors.New("token fetcher is required")
	ErrMissingClientID = errors.New("client id is required")
	ErrEmptyToken      = errors.New("identity server returned an empty access token")
)

// Credentials identify the client a holder fetches tokens for. They are
// fixed for the lifetime of the holder.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	GrantType    oauth2.GrantType
}

// ClientTokenHolder keeps a machine-to-machine access token fresh.
//
// A background job refreshes the token once it is past half of its lifetime.
// Callers of AccessToken get the cached token without blocking, and only
// fetch synchronously when the cached token has already expired. Concurrent
// refreshes for one holder collapse into a single token request.
type ClientTokenHolder struct {
	fetcher   Fetcher
	creds     Credentials
	serviceIP string

	key     string // lock and flight key, unique per holder
	cell    Cell
	locker  locker.Locker
	flights singleflight.Group

	scheduler     scheduler.Scheduler
	ownsScheduler bool
	job           scheduler.Job
	checkInterval time.Duration
	logger        zerolog.Logger
	nowFunc       func() time.Time
	closeOnce     sync.Once
}

type HolderOption func(*ClientTokenHolder)

func WithNowFunc(now func() time.Time) HolderOption {
	return func(h *ClientTokenHolder) {
		h.nowFunc = now
	}
}

// WithLocker replaces the default in-process locker, e.g. with a
// locker.Redis shared between service instances.
func WithLocker(l locker.Locker) HolderOption {
	return func(h *ClientTokenHolder) {
		h.locker = l
	}
}

// WithScheduler runs the refresh check on s. The holder does not stop s on
// Close, only its own job.
func WithScheduler(s scheduler.Scheduler) HolderOption {
	return func(h *ClientTokenHolder) {
		h.scheduler = s
	}
}

func WithCheckInterval(interval time.Duration) HolderOption {
	return func(h *ClientTokenHolder) {
		h.checkInterval = interval
	}
}

// WithServiceIP sets the IP reported to the identity server for token requests.
func WithServiceIP(ip string) HolderOption {
	return func(h *ClientTokenHolder) {
		h.serviceIP = ip
	}
}

func WithLogger(logger zerolog.Logger) HolderOption {
	return func(h *ClientTokenHolder) {
		h.logger = logger
	}
}

// WithKey sets the lock key. Holders sharing a distributed locker should use
// a key derived from their credentials so that instances of the same client
// coordinate.
func WithKey(key string) HolderOption {
	return func(h *ClientTokenHolder) {
		h.key = key
	}
}

// NewClientTokenHolder creates a holder and starts its refresh job. No token
// is fetched until the first job run or AccessToken call.
func NewClientTokenHolder(fetcher Fetcher, creds Credentials, options ...HolderOption) (*ClientTokenHolder, error) {
	if fetcher == nil {
		return nil, ErrMissingFetcher
	}
	if creds.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if creds.GrantType == "" {
		creds.GrantType = oauth2.ClientCredentialsGrant
	}
	creds.Scopes = slices.Clone(creds.Scopes)

	h := &ClientTokenHolder{
		fetcher:       fetcher,
		creds:         creds,
		serviceIP:     defaultServiceIP,
		checkInterval: defaultCheckInterval,
		logger:        log.Logger,
	}

	for _, opt := range options {
		opt(h)
	}

	if h.key == "" {
		h.key = refreshTaskName + ":" + uuid.NewString()
	}
	if h.locker == nil {
		h.locker = locker.NewLocal()
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.scheduler == nil {
		h.scheduler = scheduler.NewTicker(scheduler.WithLogger(h.logger))
		h.ownsScheduler = true
	}
	h.logger = h.logger.With().Str("holder", h.key).Str("client_id", creds.ClientID).Logger()

	job, err := h.scheduler.Schedule(refreshTaskName, h.checkInterval, h.checkRefresh)
	if err != nil {
		if h.ownsScheduler {
			h.scheduler.Stop()
		}
		return nil, err
	}
	h.job = job

	return h, nil
}

// AccessToken returns a bearer token that has not expired. It only blocks
// when the cached token is expired, in which case it refreshes it first.
func (h *ClientTokenHolder) AccessToken(ctx context.Context) (string, error) {
	t, err := h.token(ctx)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// Current returns the cached token without refreshing it.
func (h *ClientTokenHolder) Current() Token {
	return h.cell.Load().clone()
}

// Key returns the lock key of this holder.
func (h *ClientTokenHolder) Key() string {
	return h.key
}

// Close stops the refresh job. The cached token stays readable.
func (h *ClientTokenHolder) Close() {
	h.closeOnce.Do(func() {
		h.job.Stop()
		if h.ownsScheduler {
			h.scheduler.Stop()
		}
	})
}

func (h *ClientTokenHolder) token(ctx context.Context) (Token, error) {
	current := h.cell.Load()
	now := h.nowFunc()
	if current.Expired(now) {
		return h.refreshIfStillStale(ctx, now)
	}
	return current, nil
}

// checkRefresh is the recurring job: refresh once the token is past half of
// its lifetime. Failures are logged and retried on the next run.
func (h *ClientTokenHolder) checkRefresh(ctx context.Context) {
	current := h.cell.Load()
	expireDelay := time.Duration(current.ExpiresIn/2) * time.Second
	threshold := current.ValidUntil().Add(-expireDelay)
	if h.nowFunc().Before(threshold) {
		return
	}

	// Compare against the observed token: only a newer token may skip the fetch.
	if _, err := h.refreshIfStillStale(ctx, current.ValidUntil()); err != nil {
		h.logger.Warn().Err(err).Msg("proactive token refresh failed")
	}
}

// refreshIfStillStale fetches a new token unless the cached one is valid
// after staleBefore. Callers arriving while a refresh is running share its
// result or error. ctx only bounds how long this caller waits.
func (h *ClientTokenHolder) refreshIfStillStale(ctx context.Context, staleBefore time.Time) (Token, error) {
	ch := h.flights.DoChan(h.key, func() (interface{}, error) {
		return h.refreshLocked(context.WithoutCancel(ctx), staleBefore)
	})

	select {
	case <-ctx.Done():
		return Token{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	}
}

func (h *ClientTokenHolder) refreshLocked(ctx context.Context, staleBefore time.Time) (Token, error) {
	var result Token
	err := h.locker.WithLock(ctx, h.key, func() error {
		latest := h.cell.Load()
		if latest.ValidUntil().After(staleBefore) {
			result = latest
			return nil
		}

		start := time.Now()
		fetched, err := h.fetcher.Fetch(ctx, h.request())
		took := time.Since(start)
		if err == nil && fetched.AccessToken == "" {
			err = ErrEmptyToken
		}
		if err != nil {
			h.logger.Error().Err(err).Dur("took", took).Msg("client token refresh failed")
			return identityerr.Wrap(identityerr.KindUnknownToken, err)
		}

		if !h.cell.Publish(fetched) {
			result = h.cell.Load()
			h.logger.Warn().Time("issued_at", fetched.IssuedAt).Msg("discarded token older than the cached one")
			return nil
		}
		result = fetched

		event := h.logger.Info().Dur("took", took).Time("valid_until", fetched.ValidUntil())
		if claims, err := fetched.Claims(); err == nil {
			if jti, ok := claims["jti"].(string); ok {
				event = event.Str("jti", jti)
			}
		}
		event.Msg("client token refreshed")
		return nil
	})
	if err != nil {
		// fn only returns identity errors, so anything else came from the locker.
		return Token{}, identityerr.Wrap(identityerr.KindTransport, err)
	}
	return result, nil
}

func (h *ClientTokenHolder) request() Request {
	return Request{
		ClientID:     h.creds.ClientID,
		ClientSecret: h.creds.ClientSecret,
		Scopes:       slices.Clone(h.creds.Scopes),
		GrantType:    h.creds.GrantType,
		IP:           h.serviceIP,
	}
}
