package domain

import (
	"context"
	"encoding/json"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProviderClient defines the interface for the external search API
type ProviderClient interface {
	HasCredential() bool
	BuildURL(engine string, params map[string]string) (string, error)
	Fetch(ctx context.Context, reqURL string, timeout time.Duration) (json.RawMessage, error)
}

// UserRepository defines the interface for user lookup
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
}
