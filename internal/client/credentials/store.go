// Package credentials is the console's durable key/value credential store.
// It keeps the access token, the refresh token and the serialized
// subscription snapshot across process restarts. Values are not validated.
package credentials

import "context"

// Well-known keys.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refresh"
	KeySubscription = "subscription"
)

// SessionKeys lists every key owned by a session, in clearing order.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeySubscription}

// Store is a flat string key/value surface. Get reports ok=false for a
// missing key; Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Updater is implemented by stores that can apply several writes
// atomically. fn receives a store bound to the batch.
type Updater interface {
	Update(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// Update runs fn atomically when s supports it and directly otherwise.
func Update(ctx context.Context, s Store, fn func(ctx context.Context, s Store) error) error {
	if u, ok := s.(Updater); ok {
		return u.Update(ctx, fn)
	}
	return fn(ctx, s)
}
