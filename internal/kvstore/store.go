package kvstore

import "context"

// Store is the persistent key/value collaborator behind the session.
// Set writes all entries or none; Delete ignores missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
