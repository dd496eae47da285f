package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "symbols", []byte(`["EURUSD"]`), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "forever", []byte("x"), 0))

	b, ok, err := c.GetBytes(ctx, "symbols")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["EURUSD"]`, string(b))

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "symbols")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "forever")
	assert.True(t, ok)
}

type failingCache struct{}

func (failingCache) GetBytes(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}

func (failingCache) SetBytes(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func TestGetOrLoadJSON(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"EURUSD", "GBPUSD"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoadJSON(ctx, c, "symbols", time.Minute, load, func(err error) {
			t.Errorf("unexpected cache error: %v", err)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"EURUSD", "GBPUSD"}, v)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrLoadJSONCacheDown(t *testing.T) {
	var cacheErrs []error
	v, err := GetOrLoadJSON(context.Background(), failingCache{}, "symbols", time.Minute,
		func(context.Context) ([]string, error) { return []string{"USDJPY"}, nil },
		func(err error) { cacheErrs = append(cacheErrs, err) })
	require.NoError(t, err)
	assert.Len(t, cacheErrs, 2)
	assert.Equal(t, []string{"USDJPY"}, v)
}

func TestGetOrLoadJSONLoadError(t *testing.T) {
	boom := errors.New("source down")
	_, err := GetOrLoadJSON(context.Background(), NewTTLCache(), "symbols", time.Minute,
		func(context.Context) ([]string, error) { return nil, boom }, nil)
	assert.ErrorIs(t, err, boom)
}
