package types

import "github.com/yeisme/creativevault/pkg/internal/model"

// ModerationRequest 批量审核请求.
type ModerationRequest struct {
	Action      string `json:"action"      rule:"required,oneof=approve draft"`
	CreativeIDs []uint `json:"creativeIds" rule:"required,min=1"`
	ModeratedBy string `json:"moderatedBy" rule:"max=255"`
}

// ModerationResponse 批量审核结果.
type ModerationResponse struct {
	NewStatus        model.CreativeStatus `json:"newStatus"`
	UpdatedCreatives []model.Creative     `json:"updatedCreatives"`
	Count            int                  `json:"count"`
}

// StatusCounts 各状态数量.
type StatusCounts struct {
	Draft     int64 `json:"draft"`
	Published int64 `json:"published"`
	Total     int64 `json:"total"`
}

// DeleteRequest 批量删除请求.
type DeleteRequest struct {
	CreativeIDs []uint `json:"creativeIds" rule:"required,min=1"`
}

// DeleteResponse 批量删除结果.
type DeleteResponse struct {
	DeletedCount int    `json:"deletedCount"`
	DeletedIDs   []uint `json:"deletedIds"`
}
