// Package model 定义目录的持久化模型.
package model

import (
	"fmt"
	"time"
)

// CreativeStatus 素材审核状态，只有 draft 与 published 两个取值.
type CreativeStatus string

const (
	StatusDraft     CreativeStatus = "draft"
	StatusPublished CreativeStatus = "published"
)

// Valid 判断状态是否合法.
func (s CreativeStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// ParseStatus 解析状态字符串.
func ParseStatus(s string) (CreativeStatus, error) {
	st := CreativeStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}

	return st, nil
}

// ModerationAction 审核动作.
type ModerationAction string

const (
	ActionApprove  ModerationAction = "approve"
	ActionSetDraft ModerationAction = "draft"
)

// ParseModerationAction 解析审核动作字符串.
func ParseModerationAction(s string) (ModerationAction, error) {
	switch a := ModerationAction(s); a {
	case ActionApprove, ActionSetDraft:
		return a, nil
	default:
		return "", fmt.Errorf("unknown moderation action %q", s)
	}
}

// TargetStatus 返回动作对应的目标状态.
func (a ModerationAction) TargetStatus() CreativeStatus {
	if a == ActionApprove {
		return StatusPublished
	}

	return StatusDraft
}

// AssetSlot 素材的三个资产位.
type AssetSlot string

const (
	SlotMedia     AssetSlot = "media"
	SlotThumbnail AssetSlot = "thumbnail"
	SlotDownload  AssetSlot = "download"
)

// Column 返回资产位对应的列名.
func (s AssetSlot) Column() string {
	switch s {
	case SlotMedia:
		return "media_url"
	case SlotThumbnail:
		return "thumbnail_url"
	case SlotDownload:
		return "download_url"
	default:
		return ""
	}
}

// ParseAssetSlot 解析资产位.
func ParseAssetSlot(s string) (AssetSlot, error) {
	slot := AssetSlot(s)
	if slot.Column() == "" {
		return "", fmt.Errorf("unknown asset slot %q", s)
	}

	return slot, nil
}

// Creative 目录记录.
type Creative struct {
	ID          uint    `gorm:"primaryKey"       json:"id"`
	Title       string  `gorm:"size:512;not null" json:"title"`
	Description *string `gorm:"type:text"        json:"description"`

	FormatID    uint          `gorm:"not null;index" json:"formatId"`
	Format      *Format       `gorm:"foreignKey:FormatID" json:"format,omitempty"`
	TypeID      uint          `gorm:"not null;index" json:"typeId"`
	Type        *CreativeType `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	PlacementID uint          `gorm:"not null;index" json:"placementId"`
	Placement   *Placement    `gorm:"foreignKey:PlacementID" json:"placement,omitempty"`
	PlatformID  uint          `gorm:"not null;index" json:"platformId"`
	Platform    *Platform     `gorm:"foreignKey:PlatformID" json:"platform,omitempty"`
	// CountryCode 保存原始国家代码，不做外键.
	CountryCode *string `gorm:"size:8;index" json:"countryCode"`
	Cloaking    bool    `gorm:"not null;default:false;index" json:"cloaking"`

	MediaURL     *string `gorm:"size:2048" json:"mediaUrl"`
	ThumbnailURL *string `gorm:"size:2048" json:"thumbnailUrl"`
	DownloadURL  *string `gorm:"size:2048" json:"downloadUrl"`

	LandingURL   string `gorm:"size:2048" json:"landingUrl"`
	SourceLink   string `gorm:"size:2048" json:"sourceLink"`
	SourceDevice string `gorm:"size:255"  json:"sourceDevice"`

	CapturedAt  time.Time      `gorm:"not null;index"                     json:"capturedAt"`
	Status      CreativeStatus `gorm:"size:16;not null;default:draft;index" json:"status"`
	ModeratedAt *time.Time     `json:"moderatedAt"`
	ModeratedBy *string        `gorm:"size:255" json:"moderatedBy"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AssetURL 返回指定资产位的地址.
func (c *Creative) AssetURL(slot AssetSlot) *string {
	switch slot {
	case SlotMedia:
		return c.MediaURL
	case SlotThumbnail:
		return c.ThumbnailURL
	case SlotDownload:
		return c.DownloadURL
	default:
		return nil
	}
}

// AllModels 返回需要迁移的全部模型.
func AllModels() []any {
	return []any{&Format{}, &CreativeType{}, &Placement{}, &Platform{}, &Country{}, &Creative{}}
}
