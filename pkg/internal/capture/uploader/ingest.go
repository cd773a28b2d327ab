package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/types"
	nlog "github.com/yeisme/creativevault/pkg/log"
)

const maxResponseBytes = 4 << 20

// Submission 登记请求携带的元数据与小文件.
type Submission struct {
	Title        string
	Description  string
	Format       string
	Type         string
	Placement    string
	Country      string
	Platform     string
	Cloaking     bool
	LandingURL   string
	SourceLink   string
	SourceDevice string
	CapturedAt   time.Time
	// DownloadURL 第一阶段得到的归档地址，空表示无归档.
	DownloadURL string
	// MediaPath、ThumbnailPath 本地图片路径，空表示不发送.
	MediaPath     string
	ThumbnailPath string
}

// Registration 登记成功后服务端返回的记录.
type Registration struct {
	Creative    *model.Creative
	URLs        types.AssetURLs
	FileUploads types.FileUploads
}

// HTTPIngestor 通过 multipart POST 调用摄取接口.
type HTTPIngestor struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// IngestorOption HTTPIngestor 选项.
type IngestorOption func(*HTTPIngestor)

// WithHTTPClient 替换默认 HTTP 客户端.
func WithHTTPClient(c *http.Client) IngestorOption {
	return func(h *HTTPIngestor) { h.client = c }
}

// WithCircuitBreaker 为登记请求加熔断. 未设置 IsSuccessful 时，
// 永久性拒绝（4xx，408/429 除外）不计为失败.
func WithCircuitBreaker(settings gobreaker.Settings) IngestorOption {
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = breakerSuccess
	}

	return func(h *HTTPIngestor) { h.breaker = gobreaker.NewCircuitBreaker(settings) }
}

func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}

	var rej *RejectionError

	return errors.As(err, &rej) && rej.Permanent()
}

// NewHTTPIngestor 创建摄取客户端，默认传输层带 otel 追踪.
func NewHTTPIngestor(endpoint string, opts ...IngestorOption) *HTTPIngestor {
	h := &HTTPIngestor{
		endpoint: endpoint,
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register 提交登记请求. 非 2xx 或 success=false 返回 *RejectionError.
func (h *HTTPIngestor) Register(ctx context.Context, sub *Submission) (*Registration, error) {
	if h.breaker == nil {
		return h.register(ctx, sub)
	}

	v, err := h.breaker.Execute(func() (any, error) {
		return h.register(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Registration), nil
}

type ingestReply struct {
	types.CreateResponse
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func (h *HTTPIngestor) register(ctx context.Context, sub *Submission) (*Registration, error) {
	files := openAttachments(sub)

	pr, pw := io.Pipe()
	defer pr.Close()

	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeSubmission(mw, sub, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, pr)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read ingest response: %w", err)
	}

	var reply ingestReply

	decodeErr := sonic.Unmarshal(body, &reply)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !reply.Success) {
		rej := &RejectionError{Status: resp.StatusCode, Code: reply.Code, Message: reply.Error, Details: reply.Details}
		if rej.Message == "" {
			rej.Message = http.StatusText(resp.StatusCode)
		}

		return nil, rej
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrIngestionRejected, decodeErr)
	}

	return &Registration{Creative: reply.Creative, URLs: reply.URLs, FileUploads: reply.FileUploads}, nil
}

// attachment 已打开的待发送文件.
type attachment struct {
	field string
	file  *os.File
}

// openAttachments 在开始传输前打开图片，打不开的直接跳过.
func openAttachments(sub *Submission) []attachment {
	l := nlog.Logger()

	var files []attachment

	for _, p := range []struct{ field, path string }{
		{types.PartMedia, sub.MediaPath},
		{types.PartThumbnail, sub.ThumbnailPath},
	} {
		if p.path == "" {
			continue
		}

		f, err := os.Open(p.path)
		if err != nil {
			l.Warn().Err(err).Str("field", p.field).Str("path", p.path).Msg("skip unreadable image")

			continue
		}

		files = append(files, attachment{field: p.field, file: f})
	}

	return files
}

// writeSubmission 写入全部字段与文件后关闭 multipart writer，并关闭所有文件.
func writeSubmission(mw *multipart.Writer, sub *Submission, files []attachment) error {
	defer func() {
		for _, a := range files {
			_ = a.file.Close()
		}
	}()

	fields := [][2]string{
		{"title", sub.Title},
		{"description", sub.Description},
		{"format", sub.Format},
		{"type", sub.Type},
		{"placement", sub.Placement},
		{"country", sub.Country},
		{"platform", sub.Platform},
		{"cloaking", strconv.FormatBool(sub.Cloaking)},
		{"landing_url", sub.LandingURL},
		{"source_link", sub.SourceLink},
		{"source_device", sub.SourceDevice},
		{"captured_at", sub.CapturedAt.UTC().Format(time.RFC3339Nano)},
	}

	if sub.DownloadURL != "" {
		fields = append(fields, [2]string{"download_url", sub.DownloadURL})
	}

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	for _, a := range files {
		part, err := mw.CreateFormFile(a.field, filepath.Base(a.file.Name()))
		if err != nil {
			return err
		}

		if _, err := io.Copy(part, a.file); err != nil {
			return err
		}
	}

	return mw.Close()
}
