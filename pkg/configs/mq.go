package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS   MQType = "nats"
	MQTypeMemory MQType = "memory"

	DefaultMQURL         = "nats://localhost:4222"
	DefaultMaxReconnects = 5               // 默认最大重连次数.
	DefaultReconnectWait = 2 * time.Second // 默认重连等待时间.
	DefaultMQClientID    = "creativevault" // 默认客户端ID
	DefaultMemoryBuffer  = 256             // 进程内通道缓冲
)

// MQConfig 消息队列配置.
type MQConfig struct {
	Type   MQType         `mapstructure:"type"   rule:"oneof=nats memory"`
	NATS   MQNATSConfig   `mapstructure:"nats"`
	Memory MQMemoryConfig `mapstructure:"memory"`
}

// MQNATSConfig NATS 连接与 JetStream 配置.
type MQNATSConfig struct {
	URL              string        `mapstructure:"url"               rule:"required"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	ClientID         string        `mapstructure:"client_id"`
	MaxReconnects    int           `mapstructure:"max_reconnects"    rule:"min=-1,max=100"`
	ReconnectWait    time.Duration `mapstructure:"reconnect_wait"`
	JetStreamEnabled bool          `mapstructure:"jetstream_enabled"`
	AutoProvision    bool          `mapstructure:"auto_provision"`
	TrackMsgID       bool          `mapstructure:"track_msg_id"`
	DurablePrefix    string        `mapstructure:"durable_prefix"`
}

// MQMemoryConfig 进程内 gochannel 配置.
type MQMemoryConfig struct {
	OutputBuffer int64 `mapstructure:"output_buffer" rule:"min=0"`
	Persistent   bool  `mapstructure:"persistent"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeMemory)

	v.SetDefault("mq.nats.url", DefaultMQURL)
	v.SetDefault("mq.nats.user", "")
	v.SetDefault("mq.nats.password", "")
	v.SetDefault("mq.nats.client_id", DefaultMQClientID)
	v.SetDefault("mq.nats.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.nats.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.nats.jetstream_enabled", false)
	v.SetDefault("mq.nats.auto_provision", true)
	v.SetDefault("mq.nats.track_msg_id", true)
	v.SetDefault("mq.nats.durable_prefix", "creativevault")

	v.SetDefault("mq.memory.output_buffer", DefaultMemoryBuffer)
	v.SetDefault("mq.memory.persistent", false)
}
