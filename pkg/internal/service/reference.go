package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/creativevault/pkg/cache"
	"github.com/yeisme/creativevault/pkg/internal/model"
	nlog "github.com/yeisme/creativevault/pkg/log"
)

// ReferenceCacheNamespace 参考数据在 KV 中的命名空间.
const ReferenceCacheNamespace = "ref"

// errUnknownCode 参考代码不存在.
var errUnknownCode = errors.New("unknown reference code")

// ReferenceService 参考目录：按 code 解析 id，结果经缓存读穿.
type ReferenceService struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

// NewReferenceService 创建参考目录服务，c 为 nil 时直接查库.
func NewReferenceService(db *gorm.DB, c *cache.Cache, ttl time.Duration) *ReferenceService {
	return &ReferenceService{db: db, cache: c, ttl: ttl}
}

// ResolveID 解析单个代码.
func (s *ReferenceService) ResolveID(ctx context.Context, kind model.ReferenceKind, code string) (uint, error) {
	load := func() (uint, error) {
		var ids []uint

		err := s.db.WithContext(ctx).
			Table(kind.Table()).
			Where("code = ?", code).
			Limit(1).
			Pluck("id", &ids).Error
		if err != nil {
			return 0, err
		}

		if len(ids) == 0 {
			return 0, fmt.Errorf("%s %q: %w", kind, code, errUnknownCode)
		}

		return ids[0], nil
	}

	return cache.GetOrSet(ctx, s.cache, string(kind)+":"+code, load, s.ttl)
}

// Resolve 并发解析多个代码. 任何代码不存在时返回 UnknownReferenceCode，Details 列出全部失败字段.
func (s *ReferenceService) Resolve(ctx context.Context, codes map[model.ReferenceKind]string) (map[model.ReferenceKind]uint, error) {
	var (
		mu      sync.Mutex
		ids     = make(map[model.ReferenceKind]uint, len(codes))
		unknown = make(map[string]string)
	)

	g, gctx := errgroup.WithContext(ctx)

	for kind, code := range codes {
		g.Go(func() error {
			id, err := s.ResolveID(gctx, kind, code)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				ids[kind] = id
			case errors.Is(err, errUnknownCode):
				unknown[string(kind)] = fmt.Sprintf("unknown %s code %q", kind, code)
			default:
				return err
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: resolve references: %w", ErrInternalStorage, err)
	}

	if len(unknown) > 0 {
		return nil, newValidationError(CodeUnknownReferenceCode, "unknown reference code", unknown)
	}

	return ids, nil
}

// All 返回五张参考表的全部数据.
func (s *ReferenceService) All(ctx context.Context) (*model.ReferenceSet, error) {
	set := &model.ReferenceSet{}
	db := s.db.WithContext(ctx)

	if err := db.Order("code").Find(&set.Formats).Error; err != nil {
		return nil, err
	}

	if err := db.Order("code").Find(&set.Types).Error; err != nil {
		return nil, err
	}

	if err := db.Order("code").Find(&set.Placements).Error; err != nil {
		return nil, err
	}

	if err := db.Order("code").Find(&set.Platforms).Error; err != nil {
		return nil, err
	}

	if err := db.Order("code").Find(&set.Countries).Error; err != nil {
		return nil, err
	}

	return set, nil
}

// Seed 按 code 幂等写入参考数据，完成后清空缓存.
func (s *ReferenceService) Seed(ctx context.Context, set model.ReferenceSet) error {
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(set.Formats) > 0 {
			if err := tx.Clauses(upsert).Create(&set.Formats).Error; err != nil {
				return fmt.Errorf("seed formats: %w", err)
			}
		}

		if len(set.Types) > 0 {
			if err := tx.Clauses(upsert).Create(&set.Types).Error; err != nil {
				return fmt.Errorf("seed types: %w", err)
			}
		}

		if len(set.Placements) > 0 {
			if err := tx.Clauses(upsert).Create(&set.Placements).Error; err != nil {
				return fmt.Errorf("seed placements: %w", err)
			}
		}

		if len(set.Platforms) > 0 {
			if err := tx.Clauses(upsert).Create(&set.Platforms).Error; err != nil {
				return fmt.Errorf("seed platforms: %w", err)
			}
		}

		if len(set.Countries) > 0 {
			if err := tx.Clauses(upsert).Create(&set.Countries).Error; err != nil {
				return fmt.Errorf("seed countries: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := s.cache.Clear(ctx); err != nil {
		l := nlog.Logger()
		l.Warn().Err(err).Msg("clear reference cache failed")
	}

	return nil
}
