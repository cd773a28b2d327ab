// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/internal/types"
	"github.com/yeisme/creativevault/pkg/log"
	"github.com/yeisme/creativevault/pkg/scheduler"
)

// OrphanScanner 对账对象存储与目录记录.
type OrphanScanner interface {
	ScanOrphans(ctx context.Context) (*types.OrphanReport, error)
}

// RegisterCronJobs 配置业务定时任务：
//   - maintenance.enabled 时按 orphan_scan_cron 扫描孤儿对象并记录报告
func RegisterCronJobs(sched *scheduler.Scheduler, cfg configs.MaintenanceConfig, scanner OrphanScanner) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if !cfg.Enabled {
		return nil
	}

	if scanner == nil {
		return errors.New("orphan scanner is nil")
	}

	expr := cfg.OrphanScanCron
	if expr == "" {
		expr = DefaultCronOrphanScan
	}

	return sched.AddCron(JobOrphanScan, expr, func(ctx context.Context) error {
		return runOrphanScan(ctx, scanner)
	})
}

// runOrphanScan 只记录报告，不删除对象.
func runOrphanScan(ctx context.Context, scanner OrphanScanner) error {
	l := log.Logger().With().Str("job", JobOrphanScan).Logger()

	report, err := scanner.ScanOrphans(ctx)
	if err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if len(report.OrphanKeys) > 0 {
		level = zerolog.WarnLevel
	}

	l.WithLevel(level).Int("scanned", report.ScannedKeys).
		Int("orphans", len(report.OrphanKeys)).
		Int("missing_assets", len(report.MissingAssets)).
		Strs("orphan_keys", firstN(report.OrphanKeys, 20)).
		Msg("orphan scan report")

	return nil
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
