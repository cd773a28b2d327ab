// Package cache 提供基于键值存储的泛型读穿缓存.
//
// 基本用法:
//
//	c := cache.NewCache(store, "ref")
//	id, err := cache.GetOrSet(ctx, c, "format:banner", func() (uint, error) {
//	    return lookupFromDB("banner")
//	}, 5*time.Minute)
//
// 底层存储为 nil 时缓存退化为直接调用加载函数，缓存读写失败不会影响返回值.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/creativevault/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现，所有键带有命名空间前缀.
type Cache struct {
	kvStore   kv.KVStore
	namespace string
	group     singleflight.Group
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore, namespace string) *Cache {
	return &Cache{
		kvStore:   kvStore,
		namespace: namespace,
	}
}

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}

	return c.namespace + ":" + k
}

// Enabled 是否配置了底层存储.
func (c *Cache) Enabled() bool {
	return c != nil && c.kvStore != nil
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	if !c.Enabled() {
		return zero, kv.ErrKeyNotFound
	}

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}

	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时调用 getter 并回填. 同一键的并发加载只执行一次.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	if !c.Enabled() {
		return getter()
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		// 回填失败仍返回值
		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	return v.(T), nil
}

// Clear 清空当前命名空间下的键.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	keys, err := c.kvStore.Keys(ctx, c.key("*"))
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
