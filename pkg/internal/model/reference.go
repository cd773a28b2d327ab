package model

import "fmt"

// ReferenceRow 参考表的通用列.
type ReferenceRow struct {
	ID   uint   `gorm:"primaryKey"                json:"id"`
	Code string `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Name string `gorm:"size:255"                  json:"name"`
}

// Format 素材格式，如 image、video.
type Format struct{ ReferenceRow }

// CreativeType 素材类型，如 banner、native.
type CreativeType struct{ ReferenceRow }

// Placement 投放位置.
type Placement struct{ ReferenceRow }

// Platform 投放平台.
type Platform struct{ ReferenceRow }

// Country 国家，code 即主键.
type Country struct {
	Code string `gorm:"primaryKey;size:8" json:"code"`
	Name string `gorm:"size:255"          json:"name"`
}

func (Format) TableName() string       { return "formats" }
func (CreativeType) TableName() string { return "creative_types" }
func (Placement) TableName() string    { return "placements" }
func (Platform) TableName() string     { return "platforms" }
func (Country) TableName() string      { return "countries" }

// ReferenceKind 需要按 code 解析为 id 的四类参考数据.
type ReferenceKind string

const (
	KindFormat    ReferenceKind = "format"
	KindType      ReferenceKind = "type"
	KindPlacement ReferenceKind = "placement"
	KindPlatform  ReferenceKind = "platform"
)

// ReferenceKinds 按固定顺序列出全部 kind.
var ReferenceKinds = []ReferenceKind{KindFormat, KindType, KindPlacement, KindPlatform}

// Table 返回 kind 对应的表名.
func (k ReferenceKind) Table() string {
	switch k {
	case KindFormat:
		return Format{}.TableName()
	case KindType:
		return CreativeType{}.TableName()
	case KindPlacement:
		return Placement{}.TableName()
	case KindPlatform:
		return Platform{}.TableName()
	default:
		panic(fmt.Sprintf("unknown reference kind %q", string(k)))
	}
}

// Column 返回 creatives 表上的外键列.
func (k ReferenceKind) Column() string {
	return string(k) + "_id"
}
