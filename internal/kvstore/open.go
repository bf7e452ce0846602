package kvstore

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// redisKeyPrefix namespaces every key this application writes to redis.
const redisKeyPrefix = "marketbrowser:"

// Options selects and configures a storage backend.
type Options struct {
	Backend string
	DataDir string
	Redis   RedisConfig
}

// Open returns the Store for opts.Backend and a function releasing its resources.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case BackendFile, "":
		store, err := NewFileStore(afero.NewOsFs(), opts.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, opts.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, redisKeyPrefix), client.Close, nil
	case BackendMemory:
		return NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
