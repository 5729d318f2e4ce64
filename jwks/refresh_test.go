package jwks

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_ReusesSetPublishedAfterCallerLooked(t *testing.T) {
	var fetches atomic.Int32
	c := NewCache(FetcherFunc(func(context.Context) ([]SigningKey, error) {
		fetches.Add(1)
		return []SigningKey{{KeyID: "abc"}}, nil
	}), Config{})
	ctx := context.Background()

	stale, err := c.Refresh(ctx)
	require.NoError(t, err)
	fresh, err := c.Refresh(ctx)
	require.NoError(t, err)
	require.NotSame(t, stale, fresh)

	got, err := c.refresh(ctx, stale, false)
	require.NoError(t, err)
	assert.Same(t, fresh, got)
	assert.Equal(t, int32(2), fetches.Load())

	got, err = c.refresh(ctx, fresh, false)
	require.NoError(t, err)
	assert.NotSame(t, fresh, got)
	assert.Equal(t, int32(3), fetches.Load())
}

func TestRefresh_ForcedAlwaysFetches(t *testing.T) {
	var fetches atomic.Int32
	c := NewCache(FetcherFunc(func(context.Context) ([]SigningKey, error) {
		fetches.Add(1)
		return nil, nil
	}), Config{})

	cur, err := c.Refresh(context.Background())
	require.NoError(t, err)
	_, err = c.refresh(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())
	assert.NotSame(t, cur, c.Snapshot())
}

func TestNewCache_DefaultFetchTimeout(t *testing.T) {
	c := NewCache(FetcherFunc(func(context.Context) ([]SigningKey, error) { return nil, nil }), Config{})
	assert.Equal(t, defaultFetchTimeout, c.config.FetchTimeout)
}
