package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Loader produces the value for a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// ReadThrough returns the value stored under key, or runs load, stores its
// JSON encoding and returns it. kind groups keys for metrics
// ("all_courses", "category_courses", ...).
//
// A failing backend never fails the read: the value comes from load and the
// backend error is handed to onErr (which may be nil). Only load errors are
// returned.
func ReadThrough[V any](ctx context.Context, store Store, kind, key string, load Loader[V], onErr func(error)) (V, error) {
	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}

	raw, ok, err := store.Get(ctx, key)
	switch {
	case err != nil:
		recordRequest(kind, resultError)
		report(err)
	case ok:
		var v V
		if err := json.Unmarshal(raw, &v); err == nil {
			recordRequest(kind, resultHit)
			return v, nil
		}
		recordRequest(kind, resultError)
		report(fmt.Errorf("decode cached %s: %w", key, err))
	default:
		recordRequest(kind, resultMiss)
	}

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		report(fmt.Errorf("encode %s: %w", key, err))
		return v, nil
	}
	if err := store.Set(ctx, key, encoded); err != nil {
		report(err)
	}
	return v, nil
}
