package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/types"
	"github.com/yeisme/creativevault/pkg/rule"
)

const dateLayout = "2006-01-02"

// 排序：公开视图按采集时间，管理视图按创建时间，相同时间按 id.
const (
	publicOrder = "captured_at DESC, id DESC"
	adminOrder  = "created_at DESC, id DESC"
)

// CatalogService 目录分页查询.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService 创建目录查询服务.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListPublished 公开目录，始终只返回 published 记录，忽略 status 参数.
func (s *CatalogService) ListPublished(ctx context.Context, q types.ListQuery) (*types.ListResponse, error) {
	q.Status = string(model.StatusPublished)

	return s.list(ctx, q, publicOrder)
}

// ListAdmin 管理目录，status 为空或 all 时不限制状态.
func (s *CatalogService) ListAdmin(ctx context.Context, q types.ListQuery) (*types.ListResponse, error) {
	return s.list(ctx, q, adminOrder)
}

// Get 按 id 读取任意状态的记录.
func (s *CatalogService) Get(ctx context.Context, id uint) (*model.Creative, error) {
	return s.get(ctx, id, "")
}

// GetPublished 按 id 读取已发布记录，其他状态视为不存在.
func (s *CatalogService) GetPublished(ctx context.Context, id uint) (*model.Creative, error) {
	return s.get(ctx, id, model.StatusPublished)
}

func (s *CatalogService) get(ctx context.Context, id uint, status model.CreativeStatus) (*model.Creative, error) {
	if id == 0 {
		return nil, ErrRecordNotFound
	}

	db := s.db.WithContext(ctx).Scopes(withReferences)
	if status != "" {
		db = db.Where("status = ?", string(status))
	}

	var rec model.Creative

	err := db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: get creative %d: %w", ErrInternalStorage, id, err)
	}

	return &rec, nil
}

// list 计数与分页查询使用同一个过滤条件.
func (s *CatalogService) list(ctx context.Context, q types.ListQuery, order string) (*types.ListResponse, error) {
	if err := rule.ValidateStruct(&q); err != nil {
		return nil, fromRuleError(err)
	}

	q.Normalize()

	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Creative{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: count creatives: %w", ErrInternalStorage, err)
	}

	creatives := []model.Creative{}

	err = s.db.WithContext(ctx).
		Model(&model.Creative{}).
		Scopes(filter, withReferences).
		Order(order).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&creatives).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list creatives: %w", ErrInternalStorage, err)
	}

	return &types.ListResponse{
		Creatives:  creatives,
		Total:      total,
		Page:       q.Page,
		TotalPages: types.TotalPages(total, q.Limit),
	}, nil
}

// buildFilter 生成 AND 过滤条件. 日期按 UTC 自然日的半开区间比较.
func buildFilter(q types.ListQuery) (func(*gorm.DB) *gorm.DB, error) {
	var from, to *time.Time

	if q.DateFrom != "" {
		t, err := time.ParseInLocation(dateLayout, q.DateFrom, time.UTC)
		if err != nil {
			return nil, newValidationError(CodeInvalidField, "invalid date", map[string]string{"dateFrom": "must be YYYY-MM-DD"})
		}

		from = &t
	}

	if q.DateTo != "" {
		t, err := time.ParseInLocation(dateLayout, q.DateTo, time.UTC)
		if err != nil {
			return nil, newValidationError(CodeInvalidField, "invalid date", map[string]string{"dateTo": "must be YYYY-MM-DD"})
		}

		next := t.AddDate(0, 0, 1)
		to = &next
	}

	codes := []struct {
		kind model.ReferenceKind
		code string
	}{
		{model.KindFormat, q.Format},
		{model.KindType, q.Type},
		{model.KindPlacement, q.Placement},
		{model.KindPlatform, q.Platform},
	}

	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("captured_at >= ?", *from)
		}

		if to != nil {
			db = db.Where("captured_at < ?", *to)
		}

		for _, c := range codes {
			if c.code == "" {
				continue
			}

			db = db.Where(fmt.Sprintf("%s IN (SELECT id FROM %s WHERE code = ?)", c.kind.Column(), c.kind.Table()), c.code)
		}

		if q.Country != "" {
			db = db.Where("country_code = ?", q.Country)
		}

		switch q.Cloaking {
		case "true":
			db = db.Where("cloaking = ?", true)
		case "false":
			db = db.Where("cloaking = ?", false)
		}

		if q.Status != "" && q.Status != types.StatusAll {
			db = db.Where("status = ?", q.Status)
		}

		return db
	}, nil
}
