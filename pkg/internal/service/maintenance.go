package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/types"
	nlog "github.com/yeisme/creativevault/pkg/log"
)

// MaintenanceService 对账对象存储与目录记录，只报告不修复.
type MaintenanceService struct {
	db       *gorm.DB
	blobs    BlobStore
	prefixes []string
}

// NewMaintenanceService 创建维护服务，prefixes 为需要扫描的对象键前缀.
func NewMaintenanceService(db *gorm.DB, blobs BlobStore, prefixes []string) *MaintenanceService {
	if len(prefixes) == 0 {
		prefixes = []string{PrefixMedia, PrefixThumbnails, PrefixArchives}
	}

	return &MaintenanceService{db: db, blobs: blobs, prefixes: prefixes}
}

// ScanOrphans 列出没有记录引用的对象键，以及资产地址为空的记录.
func (s *MaintenanceService) ScanOrphans(ctx context.Context) (*types.OrphanReport, error) {
	var rows []model.Creative

	err := s.db.WithContext(ctx).
		Model(&model.Creative{}).
		Select("id", "media_url", "thumbnail_url", "download_url").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: scan creatives: %w", ErrInternalStorage, err)
	}

	report := &types.OrphanReport{
		Prefixes:      s.prefixes,
		OrphanKeys:    []string{},
		MissingAssets: []types.MissingAsset{},
	}

	referenced := make(map[string]struct{}, len(rows)*3)

	for _, r := range rows {
		var missing []string

		for _, slot := range []model.AssetSlot{model.SlotMedia, model.SlotThumbnail, model.SlotDownload} {
			u := r.AssetURL(slot)
			if u == nil {
				missing = append(missing, string(slot))

				continue
			}

			if s.blobs == nil {
				continue
			}

			if key, ok := s.blobs.KeyFromURL(*u); ok {
				referenced[key] = struct{}{}
			}
		}

		if len(missing) > 0 {
			report.MissingAssets = append(report.MissingAssets, types.MissingAsset{CreativeID: r.ID, Slots: missing})
		}
	}

	if s.blobs == nil {
		return report, nil
	}

	for _, prefix := range s.prefixes {
		keys, err := s.blobs.ListKeys(ctx, strings.TrimSuffix(prefix, "/")+"/")
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", ErrInternalStorage, prefix, err)
		}

		report.ScannedKeys += len(keys)

		for _, k := range keys {
			if _, ok := referenced[k]; !ok {
				report.OrphanKeys = append(report.OrphanKeys, k)
			}
		}
	}

	l := nlog.Logger()
	l.Info().Int("scanned", report.ScannedKeys).Int("orphans", len(report.OrphanKeys)).
		Int("missing_assets", len(report.MissingAssets)).Msg("orphan scan finished")

	return report, nil
}
