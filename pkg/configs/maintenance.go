package configs

import "github.com/spf13/viper"

// MaintenanceConfig 后台维护任务配置.
type MaintenanceConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	OrphanScanCron string `mapstructure:"orphan_scan_cron"`
	// ScanPrefixes 孤儿扫描涉及的对象前缀.
	ScanPrefixes []string `mapstructure:"scan_prefixes"`
}

func (c *MaintenanceConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("maintenance.enabled", false)
	v.SetDefault("maintenance.orphan_scan_cron", "0 3 * * *")
	v.SetDefault("maintenance.scan_prefixes", []string{"media", "thumbnails", "archives"})
}
