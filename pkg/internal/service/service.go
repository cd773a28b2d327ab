// Package service 实现摄取、审核、目录查询与维护业务. 依赖在构造时显式注入.
package service

import (
	"context"
	"io"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/creativevault/pkg/events"
	"github.com/yeisme/creativevault/pkg/rule"
)

// 资产对象键前缀.
const (
	PrefixMedia      = "media"
	PrefixThumbnails = "thumbnails"
	PrefixArchives   = "archives"
)

// BlobStore 对象存储网关，*s3.Client 满足该接口.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	KeyFromURL(publicURL string) (string, bool)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// EventPublisher 目录事件发布，*events.Publisher 满足该接口.
type EventPublisher interface {
	PublishCreative(ctx context.Context, topic string, evt events.CreativeEvent) error
}

// FilePart 请求中的一个文件.
type FilePart struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// AssetFiles 三个资产位对应的文件，nil 表示未上传.
type AssetFiles struct {
	Media     *FilePart
	Thumbnail *FilePart
	Archive   *FilePart
}

// withReferences 预加载四个参考关联.
func withReferences(db *gorm.DB) *gorm.DB {
	return db.Preload("Format").Preload("Type").Preload("Placement").Preload("Platform")
}

// isAbsoluteURL 判断字符串是否为带 scheme 和 host 的绝对地址.
func isAbsoluteURL(s string) bool {
	return s != "" && rule.ValidateVar(s, "url") == nil && strings.Contains(s, "://")
}

// optionalString 空串返回 nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}
