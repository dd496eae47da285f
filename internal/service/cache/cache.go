package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// GetOrLoadJSON returns the cached JSON value under key, or calls load and
// caches its result for ttl. The cache never fails a call: read and write
// errors are handed to onCacheErr (which may be nil) and load is used instead.
func GetOrLoadJSON[T any](ctx context.Context, c BytesCache, key string, ttl time.Duration,
	load func(context.Context) (T, error), onCacheErr func(error)) (T, error) {
	report := func(err error) {
		if onCacheErr != nil {
			onCacheErr(err)
		}
	}

	b, ok, err := c.GetBytes(ctx, key)
	switch {
	case err != nil:
		report(err)
	case ok:
		var v T
		derr := json.Unmarshal(b, &v)
		if derr == nil {
			return v, nil
		}
		report(fmt.Errorf("decode cache entry %s: %w", key, derr))
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	b, err = json.Marshal(v)
	if err != nil {
		report(fmt.Errorf("encode cache entry %s: %w", key, err))
		return v, nil
	}
	if err := c.SetBytes(ctx, key, b, ttl); err != nil {
		report(err)
	}
	return v, nil
}
