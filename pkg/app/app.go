// Package app 组装服务端依赖：配置、存储、业务服务、HTTP 引擎与后台任务.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/creativevault/pkg/cache"
	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/events"
	"github.com/yeisme/creativevault/pkg/internal/handle"
	"github.com/yeisme/creativevault/pkg/internal/jobs"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/router"
	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/internal/storage"
	"github.com/yeisme/creativevault/pkg/log"
	"github.com/yeisme/creativevault/pkg/metrics"
	"github.com/yeisme/creativevault/pkg/middleware"
	"github.com/yeisme/creativevault/pkg/scheduler"
	"github.com/yeisme/creativevault/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// App 服务端进程.
type App struct {
	Engine    *gin.Engine
	Storage   *storage.Manager
	Scheduler *scheduler.Scheduler
	config    *configs.AppConfig
}

// New 按配置构建应用，全部依赖显式注入，不使用全局定位器.
func New(ctx context.Context, cfg *configs.AppConfig) (*App, error) {
	log.Init(cfg.Log, cfg.Server.Debug)

	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	metrics.InitMetrics(cfg.Metrics)

	mgr, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if cfg.DB.AutoMigrate {
		if err := model.AutoMigrate(ctx, mgr.DB.DB); err != nil {
			_ = mgr.Close()

			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	h := NewHandlers(cfg, mgr)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = mgr.Close()

		return nil, err
	}

	if err := jobs.RegisterCronJobs(sched, cfg.Maintenance, h.Maintenance); err != nil {
		_ = mgr.Close()

		return nil, err
	}

	return &App{
		Engine:    NewEngine(cfg, h),
		Storage:   mgr,
		Scheduler: sched,
		config:    cfg,
	}, nil
}

// NewHandlers 由存储资源构造业务服务与处理器.
func NewHandlers(cfg *configs.AppConfig, mgr *storage.Manager) *handle.Handlers {
	db := mgr.DB.DB

	var pub service.EventPublisher
	if mgr.MQ != nil {
		pub = events.NewPublisher(mgr.MQ.Publisher(), cfg.Events)
	}

	refs := service.NewReferenceService(db, cache.NewCache(mgr.KV, service.ReferenceCacheNamespace), cfg.KV.TTL)

	return &handle.Handlers{
		Creatives:   service.NewCreativeService(db, refs, mgr.S3, pub),
		Moderation:  service.NewModerationService(db, pub),
		Catalog:     service.NewCatalogService(db),
		References:  refs,
		Maintenance: service.NewMaintenanceService(db, mgr.S3, cfg.Maintenance.ScanPrefixes),
		Health: map[string]handle.HealthChecker{
			"db": mgr.DB,
			"s3": mgr.S3,
		},
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}
}

// NewEngine 创建 gin 引擎并挂载中间件与路由.
func NewEngine(cfg *configs.AppConfig, h *handle.Handlers) *gin.Engine {
	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
		middleware.GzipMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.OperatorMiddleware(),
	)

	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	router.Register(engine.Group("/api/v1"), h)

	return engine
}

// Run 启动 HTTP 服务与定时任务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	a.Scheduler.Start()

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// Close 释放定时任务、追踪与存储资源.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(
		a.Scheduler.Stop(),
		tracing.ShutdownTracer(ctx),
		a.Storage.Close(),
	)
}
