package configs

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/yeisme/creativevault/pkg/rule"
)

const (
	DefaultClientStorageTimeout  = 5 * time.Minute  // 归档上传超时
	DefaultClientRegisterTimeout = 60 * time.Second // 登记请求超时
	DefaultClientParallelism     = 2
)

// ClientConfig 采集端配置：本地队列、对象存储与摄取接口.
type ClientConfig struct {
	QueuePath       string        `mapstructure:"queue_path"       rule:"required"`
	IngestURL       string        `mapstructure:"ingest_url"       rule:"required,url"`
	StorageTimeout  time.Duration `mapstructure:"storage_timeout"`
	RegisterTimeout time.Duration `mapstructure:"register_timeout"`
	SourceDevice    string        `mapstructure:"source_device"`
	// ArchivePrefix 归档对象的键前缀.
	ArchivePrefix  string `mapstructure:"archive_prefix"`
	Parallelism    int    `mapstructure:"parallelism"     rule:"min=1,max=16"`
	CircuitBreaker bool   `mapstructure:"circuit_breaker"`
}

// GetStorageTimeout 返回归档上传超时，未配置时使用默认值.
func (c *ClientConfig) GetStorageTimeout() time.Duration {
	if c.StorageTimeout <= 0 {
		return DefaultClientStorageTimeout
	}

	return c.StorageTimeout
}

// GetRegisterTimeout 返回登记超时，未配置时使用默认值.
func (c *ClientConfig) GetRegisterTimeout() time.Duration {
	if c.RegisterTimeout <= 0 {
		return DefaultClientRegisterTimeout
	}

	return c.RegisterTimeout
}

func (c *ClientConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("client.queue_path", "capture-queue.db")
	v.SetDefault("client.ingest_url", "http://localhost:8080/api/v1/creatives")
	v.SetDefault("client.storage_timeout", DefaultClientStorageTimeout)
	v.SetDefault("client.register_timeout", DefaultClientRegisterTimeout)
	v.SetDefault("client.source_device", "")
	v.SetDefault("client.archive_prefix", "archives")
	v.SetDefault("client.parallelism", DefaultClientParallelism)
	v.SetDefault("client.circuit_breaker", false)
}

// Check 校验采集端配置可用：规则校验、摄取地址为绝对 http(s) URL、队列文件所在目录存在.
func (c *ClientConfig) Check() error {
	var errs []error

	if err := rule.ValidateStruct(c); err != nil {
		errs = append(errs, err)
	}

	if u, err := url.Parse(c.IngestURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("client.ingest_url must be an absolute http(s) url, got %q", c.IngestURL))
	}

	if c.QueuePath != "" {
		dir := filepath.Dir(c.QueuePath)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			errs = append(errs, fmt.Errorf("client.queue_path directory %q does not exist", dir))
		}
	}

	return errors.Join(errs...)
}
