package courier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGuardConcurrentCallersShareOneExchange(t *testing.T) {
	var exchanges int32
	guard := NewTokenGuard(func(ctx context.Context) (string, time.Time, error) {
		atomic.AddInt32(&exchanges, 1)
		time.Sleep(20 * time.Millisecond) // laisse les autres goroutines s'empiler
		return "tok-partagé", time.Now().Add(time.Hour), nil
	}, nil)

	const callers = 50
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = guard.GetValidToken(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges), "un seul échange pour N appelants concurrents")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-partagé", tokens[i])
	}
}

func TestTokenGuardCachesUntilExpiry(t *testing.T) {
	var exchanges int32
	guard := NewTokenGuard(func(ctx context.Context) (string, time.Time, error) {
		n := atomic.AddInt32(&exchanges, 1)
		return fmt.Sprintf("tok-%d", n), time.Now().Add(time.Hour), nil
	}, nil)

	for i := 0; i < 5; i++ {
		tok, err := guard.GetValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", tok)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))
}

func TestTokenGuardSafetyMarginForcesRefresh(t *testing.T) {
	// Un token qui expire dans 2 minutes est déjà considéré mort
	// (marge de sécurité de 5 minutes)
	var exchanges int32
	guard := NewTokenGuard(func(ctx context.Context) (string, time.Time, error) {
		atomic.AddInt32(&exchanges, 1)
		return "tok-mourant", time.Now().Add(2 * time.Minute), nil
	}, nil)

	_, err := guard.GetValidToken(context.Background())
	require.NoError(t, err)
	_, err = guard.GetValidToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges), "un token sous la marge n'est jamais resservi")
}

func TestTokenGuardForceRefreshInvalidatesCache(t *testing.T) {
	var exchanges int32
	guard := NewTokenGuard(func(ctx context.Context) (string, time.Time, error) {
		n := atomic.AddInt32(&exchanges, 1)
		return fmt.Sprintf("tok-%d", n), time.Now().Add(time.Hour), nil
	}, nil)

	tok, err := guard.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = guard.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)

	// Le nouveau token est servi depuis le cache ensuite
	tok, err = guard.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges))
}

func TestTokenGuardAuditHookReceivesHint(t *testing.T) {
	var gotHint string
	guard := NewTokenGuard(func(ctx context.Context) (string, time.Time, error) {
		return "abcdefghijklmnop", time.Now().Add(time.Hour), nil
	}, func(obtainedAt, expiresAt time.Time, hint string) {
		gotHint = hint
	})

	_, err := guard.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", gotHint, "seuls les 8 premiers caractères partent dans l'audit")
}
