package types

import "github.com/yeisme/creativevault/pkg/internal/model"

// 上传的文件字段名.
const (
	PartMedia     = "media_file"
	PartThumbnail = "thumbnail_file"
	PartArchive   = "archive_file"
)

// CreativeForm 摄取表单，对应 POST /creatives 的 multipart 文本字段.
type CreativeForm struct {
	Title        string `form:"title"         rule:"required,max=512"`
	Description  string `form:"description"`
	Format       string `form:"format"        rule:"required"`
	Type         string `form:"type"          rule:"required"`
	Placement    string `form:"placement"     rule:"required"`
	Platform     string `form:"platform"      rule:"required"`
	Country      string `form:"country"       rule:"omitempty,max=8"`
	Cloaking     string `form:"cloaking"`                       // "true"/"false"，其他值视为 false
	LandingURL   string `form:"landing_url"   rule:"max=2048"`
	SourceLink   string `form:"source_link"   rule:"max=2048"`
	SourceDevice string `form:"source_device" rule:"max=255"`
	CapturedAt   string `form:"captured_at"`                    // ISO-8601，解析失败使用服务器时间
	MediaURL     string `form:"media_url"`
	ThumbnailURL string `form:"thumbnail_url"`
	DownloadURL  string `form:"download_url"`
}

// UpdateCreativeForm 更新表单，nil 表示请求未携带该字段.
type UpdateCreativeForm struct {
	CreativeID uint `form:"creative_id" rule:"required"`

	Title        *string `form:"title"`
	Description  *string `form:"description"`
	Format       *string `form:"format"`
	Type         *string `form:"type"`
	Placement    *string `form:"placement"`
	Platform     *string `form:"platform"`
	Country      *string `form:"country"`
	Cloaking     *string `form:"cloaking"`
	LandingURL   *string `form:"landing_url"`
	SourceLink   *string `form:"source_link"`
	SourceDevice *string `form:"source_device"`
	CapturedAt   *string `form:"captured_at"`
	DownloadURL  *string `form:"download_url"`

	// 未上传替换文件时保留的现有地址.
	CurrentMediaURL     *string `form:"current_media_url"`
	CurrentThumbnailURL *string `form:"current_thumbnail_url"`
	CurrentDownloadURL  *string `form:"current_download_url"`

	DeleteFileType string `form:"delete_file_type"`
}

// AssetURLs 创建后解析出的资产地址.
type AssetURLs struct {
	MediaURL     *string `json:"mediaUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	DownloadURL  *string `json:"downloadUrl"`
}

// FileUploads 每个资产位的上传结果.
type FileUploads struct {
	Media     bool `json:"media"`
	Thumbnail bool `json:"thumbnail"`
	Archive   bool `json:"archive"`
}

// CreateResponse 摄取结果.
type CreateResponse struct {
	Success     bool            `json:"success"`
	Creative    *model.Creative `json:"creative"`
	URLs        AssetURLs       `json:"urls"`
	FileUploads FileUploads     `json:"fileUploads"`
}

// UpdateResponse 更新结果.
type UpdateResponse struct {
	Success  bool            `json:"success"`
	Creative *model.Creative `json:"creative"`
	// Redrafted 本次更新把已发布记录改回了 draft.
	Redrafted bool `json:"redrafted"`
	// DeletedFile delete_file_type 调用时被清空的资产位.
	DeletedFile string `json:"deletedFile,omitempty"`
}
