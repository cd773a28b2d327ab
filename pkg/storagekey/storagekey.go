// Package storagekey 生成对象存储路径并推断内容类型.
package storagekey

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultStem 文件名清洗后为空时使用的名称.
const DefaultStem = "file"

var imageExts = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var otherExts = map[string]string{
	"zip":   "application/zip",
	"mhtml": "multipart/related",
	"mht":   "multipart/related",
	"mp4":   "video/mp4",
	"webm":  "video/webm",
	"mov":   "video/quicktime",
}

// Sanitize 去掉 [A-Za-z0-9._-] 以外的全部字符.
func Sanitize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Ext 返回小写扩展名，不含点.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// Build 生成 prefix/{stem}_{epochms}.{ext}.
//
// 原扩展名清洗后为空时使用 defaultExt，两者都为空则不带扩展名.
func Build(prefix, name string, at time.Time, defaultExt string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	ext := Sanitize(Ext(base))
	stem := Sanitize(strings.TrimSuffix(base, path.Ext(base)))
	stem = strings.Trim(stem, ".")
	if stem == "" {
		stem = DefaultStem
	}

	if ext == "" {
		ext = strings.TrimPrefix(strings.ToLower(defaultExt), ".")
	}

	key := stem + "_" + strconv.FormatInt(at.UnixMilli(), 10)
	if ext != "" {
		key += "." + ext
	}

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}

	return prefix + "/" + key
}

// ContentType 按扩展名推断内容类型，未知类型为 application/octet-stream.
func ContentType(name string) string {
	ext := Ext(name)
	if ct, ok := imageExts[ext]; ok {
		return ct
	}

	if ct, ok := otherExts[ext]; ok {
		return ct
	}

	return "application/octet-stream"
}

// IsImage 判断扩展名是否在图片白名单内.
func IsImage(name string) bool {
	_, ok := imageExts[Ext(name)]

	return ok
}
