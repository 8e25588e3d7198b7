package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/jrsteele09/go-identity-client/locker"
	"github.com/jrsteele09/go-identity-client/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type brokenLocker struct {
	err error
}

func (l brokenLocker) WithLock(context.Context, string, func() error) error {
	return l.err
}

func TestClientTokenHolder_LockFailureIsTransport(t *testing.T) {
	lockErr := errors.New("lock backend unreachable")
	f := setupHolder(t, 10, token.WithLocker(brokenLocker{err: lockErr}))

	_, err := f.holder.AccessToken(context.Background())
	require.ErrorIs(t, err, identityerr.ErrTransport)
	require.NotErrorIs(t, err, identityerr.ErrUnknownToken)
	require.ErrorIs(t, err, lockErr)
	require.Zero(t, f.fetcher.Calls())
}

func TestClientTokenHolder_RedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb, err := locker.DialRedis(context.Background(), locker.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	redisLocker := locker.NewRedis(rdb, locker.WithRetryInterval(time.Millisecond), locker.WithLogger(zerolog.Nop()))
	f := setupHolder(t, 10, token.WithLocker(redisLocker))

	f.clock.At(0)
	accessToken, err := f.holder.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", accessToken)
	require.False(t, mr.Exists("lock:"+f.holder.Key()))

	mr.Close()

	t.Run("synchronous refresh still fetches", func(t *testing.T) {
		f.clock.At(11)
		accessToken, err := f.holder.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "token-2", accessToken)
		require.Equal(t, 2, f.fetcher.Calls())
	})

	t.Run("proactive refresh still fetches", func(t *testing.T) {
		f.clock.At(17)
		f.scheduler.Tick()
		require.Equal(t, 3, f.fetcher.Calls())
		require.Equal(t, "token-3", f.holder.Current().AccessToken)
	})
}
