// Package storage 聚合服务端使用的存储资源：数据库、对象存储、缓存与消息队列.
//
// Example:
//
//	mgr, err := storage.New(ctx, cfg)
//	if err != nil {
//	    // 处理错误
//	}
//	defer mgr.Close()
package storage

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/creativevault/pkg/configs"
	dbc "github.com/yeisme/creativevault/pkg/internal/storage/db"
	"github.com/yeisme/creativevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/creativevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/creativevault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/creativevault/pkg/log"
	"github.com/yeisme/creativevault/pkg/metrics"
)

// Manager 聚合所有存储资源. KV 与 MQ 可能为 nil.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	KV kv.KVStore
	MQ *mqc.Client
}

// New 按配置初始化存储. 数据库与对象存储必需，缓存与消息队列失败时降级并记录告警.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	var err error

	m.DB, err = dbc.New(ctx, cfg.DB, dbc.Options{
		Metrics: cfg.Metrics.Enabled && cfg.Metrics.DBMetrics,
		Debug:   cfg.Server.Debug,
	})
	if err != nil {
		return nil, err
	}

	m.S3, err = s3c.New(ctx, cfg.S3)
	if err != nil {
		_ = m.Close()

		return nil, err
	}

	logger := nlog.Logger()

	if m.KV, err = kv.New(ctx, cfg.KV); err != nil {
		logger.Warn().Err(err).Str("type", cfg.KV.Type).Msg("kv unavailable, reference cache disabled")
	}

	if cfg.Events.Enabled {
		var registry prometheus.Registerer
		if cfg.Metrics.Enabled {
			registry = metrics.GetRegistry()
		}

		if m.MQ, err = mqc.New(ctx, &cfg.MQ, registry); err != nil {
			logger.Warn().Err(err).Str("type", string(cfg.MQ.Type)).Msg("mq unavailable, catalog events disabled")
		}
	}

	logger.Info().Msg("storage manager initialized")

	return m, nil
}

// Close 释放全部资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
