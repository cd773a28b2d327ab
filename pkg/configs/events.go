package configs

import "github.com/spf13/viper"

// EventsConfig 控制目录事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled  bool                 `mapstructure:"enabled"` // 总开关
	Creative CreativeEventsConfig `mapstructure:"creative"`
}

// CreativeEventsConfig 针对素材记录的事件开关。
type CreativeEventsConfig struct {
	Created   bool `mapstructure:"created"`
	Updated   bool `mapstructure:"updated"`
	Moderated bool `mapstructure:"moderated"`
	Deleted   bool `mapstructure:"deleted"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认关闭，目录本身不依赖事件
	v.SetDefault("events.enabled", false)

	v.SetDefault("events.creative.created", true)
	v.SetDefault("events.creative.updated", true)
	v.SetDefault("events.creative.moderated", true)
	v.SetDefault("events.creative.deleted", true)
}
