package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 键值存储配置，用于参考数据的读穿缓存.
type KVConfig struct {
	Type  string        `mapstructure:"type"  rule:"oneof=memory redis none"`
	TTL   time.Duration `mapstructure:"ttl"`
	Redis RedisKVConfig `mapstructure:"redis"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// GetKVType 返回当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	const defaultReferenceTTL = 5 * time.Minute

	v.SetDefault("kv.type", "memory")
	v.SetDefault("kv.ttl", defaultReferenceTTL)

	// Redis 默认值
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)
}
