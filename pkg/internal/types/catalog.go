package types

import "github.com/yeisme/creativevault/pkg/internal/model"

// 分页参数.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage 与 page 的 rule 标签一致，保证 (page-1)*limit 不溢出.
	MaxPage = 1000000
)

// StatusAll 管理端查询不限制状态.
const StatusAll = "all"

// ListQuery 目录查询参数.
type ListQuery struct {
	Page      int    `form:"page"      rule:"omitempty,min=1,max=1000000"`
	Limit     int    `form:"limit"     rule:"omitempty,min=1"`
	DateFrom  string `form:"dateFrom"  rule:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"dateTo"    rule:"omitempty,datetime=2006-01-02"`
	Format    string `form:"format"`
	Type      string `form:"type"`
	Placement string `form:"placement"`
	Country   string `form:"country"`
	Platform  string `form:"platform"`
	Cloaking  string `form:"cloaking"  rule:"omitempty,oneof=true false"`
	Status    string `form:"status"    rule:"omitempty,oneof=all draft published"`
}

// Normalize 填充默认分页并限制 page、limit 上限.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}

	if q.Page > MaxPage {
		q.Page = MaxPage
	}

	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}

	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// Offset 返回 (page-1)*limit.
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ListResponse 分页查询结果.
type ListResponse struct {
	Creatives  []model.Creative `json:"creatives"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}

// TotalPages 计算 ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}

	return int((total + int64(limit) - 1) / int64(limit))
}
