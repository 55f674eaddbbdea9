package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

// ValkeyCache is a Valkey implementation of the CacheRepository interface.
// Expiry is delegated to the server, so Cleanup has nothing to do.
type ValkeyCache struct {
	client valkey.Client
	prefix string
	logger *zap.Logger
}

// NewValkeyCache connects to Valkey and verifies the connection
func NewValkeyCache(ctx context.Context, address, password, prefix string, logger *zap.Logger) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{address},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	logger.Info("Connected to Valkey", zap.String("address", address))

	return &ValkeyCache{
		client: client,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Get retrieves a live cache entry
func (c *ValkeyCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	result, err := decodeResult(data)
	if err != nil {
		return nil, err
	}

	return &core.CacheEntry{Key: key, Result: result}, nil
}

// Set stores a cache entry with the remaining lifetime as TTL
func (c *ValkeyCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	ttl := int64(time.Until(entry.ExpiresAt).Seconds())
	if ttl <= 0 {
		return nil
	}

	data, err := encodeResult(entry.Result)
	if err != nil {
		return err
	}

	key := c.prefix + entry.Key
	for _, resp := range c.client.DoMulti(ctx,
		c.client.B().Set().Key(key).Value(data).Build(),
		c.client.B().Expire().Key(key).Seconds(ttl).Build(),
	) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to insert cache entry: %w", err)
		}
	}

	return nil
}

// Delete removes a cache entry
func (c *ValkeyCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(c.prefix+key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup is a no-op, Valkey expires keys itself
func (c *ValkeyCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the Valkey connection
func (c *ValkeyCache) Stop() {
	c.client.Close()
}
