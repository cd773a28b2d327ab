package kv

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yeisme/creativevault/pkg/configs"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期在读取时判定.
type MemoryKV struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{now: time.Now}
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	raw, exists := m.data.Load(key)
	if !exists {
		return nil, ErrKeyNotFound
	}

	value, expired, _, err := decodeWithTTL(raw.([]byte), m.now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.data.Delete(key)

		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(value))
	copy(result, value)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, wrapped, err := encodeWithTTL(value, m.now().Add(ttl), ttl)
	if err != nil {
		return err
	}

	if !wrapped {
		data = append([]byte(nil), value...)
	}

	m.data.Store(key, data)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if err == ErrKeyNotFound {
		return false, nil
	}

	return err == nil, err
}

// Keys 获取匹配模式的键，仅支持精确匹配与末尾 * 前缀匹配.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	keys := make([]string, 0)

	m.data.Range(func(key, _ any) bool {
		k, ok := key.(string)
		if !ok {
			return true
		}

		if pattern == "" || (wildcard && strings.HasPrefix(k, prefix)) || k == pattern {
			keys = append(keys, k)
		}

		return true
	})

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, func(context.Context, configs.KVConfig) (KVStore, error) {
		return NewMemoryKV(), nil
	})
}
