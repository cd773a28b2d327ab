package uploader

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNotInitialized 编排器缺少队列、对象存储或摄取客户端.
	ErrNotInitialized = errors.New("uploader: not initialized")
	// ErrUploadInFlight 同一采集件已有上传在进行.
	ErrUploadInFlight = errors.New("uploader: upload already in flight")
	// ErrAlreadyUploaded 采集件已上传.
	ErrAlreadyUploaded = errors.New("uploader: artifact already uploaded")
	// ErrMissingLocalFile 引用的本地文件不存在.
	ErrMissingLocalFile = errors.New("uploader: local file missing")
	// ErrStorageUploadFailed 归档上传对象存储失败.
	ErrStorageUploadFailed = errors.New("uploader: storage upload failed")
	// ErrIngestionRejected 摄取服务拒绝或不可达.
	ErrIngestionRejected = errors.New("uploader: ingestion rejected")
)

// RejectionError 摄取服务返回的失败响应.
type RejectionError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *RejectionError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "ingestion rejected (%d)", e.Status)

	if e.Code != "" {
		b.WriteString(" " + e.Code)
	}

	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}

	if len(e.Details) > 0 {
		fields := make([]string, 0, len(e.Details))
		for f := range e.Details {
			fields = append(fields, f)
		}

		sort.Strings(fields)

		b.WriteString(" [" + strings.Join(fields, ",") + "]")
	}

	return b.String()
}

// Unwrap 使 errors.Is(err, ErrIngestionRejected) 成立.
func (e *RejectionError) Unwrap() error {
	return ErrIngestionRejected
}

// Permanent 请求本身有误（4xx，408/429 除外），重试前需要修正采集件.
func (e *RejectionError) Permanent() bool {
	if e.Status == http.StatusRequestTimeout || e.Status == http.StatusTooManyRequests {
		return false
	}

	return e.Status >= 400 && e.Status < 500
}
