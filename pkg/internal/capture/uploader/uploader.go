// Package uploader 驱动采集件的两阶段上传：归档直传对象存储，再向摄取服务登记元数据.
//
// 第一阶段成功而第二阶段失败会在对象存储中留下孤儿归档，重试时使用新的带时间戳的键.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/internal/capture/queue"
	nlog "github.com/yeisme/creativevault/pkg/log"
	"github.com/yeisme/creativevault/pkg/storagekey"
)

// Store 本地队列，*queue.Queue 满足该接口.
type Store interface {
	Get(ctx context.Context, id uint) (*queue.Artifact, error)
	MarkUploaded(ctx context.Context, id uint, when time.Time) error
	ListPending(ctx context.Context) ([]queue.Artifact, error)
}

// ArchiveStore 归档对象存储网关，*s3.Client 满足该接口.
type ArchiveStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Ingestor 元数据登记，*HTTPIngestor 满足该接口.
type Ingestor interface {
	Register(ctx context.Context, sub *Submission) (*Registration, error)
}

// Options 编排器参数.
type Options struct {
	ArchivePrefix   string
	SourceDevice    string
	StorageTimeout  time.Duration
	RegisterTimeout time.Duration
	Parallelism     int
}

// OptionsFromConfig 由采集端配置生成参数.
func OptionsFromConfig(cfg configs.ClientConfig) Options {
	return Options{
		ArchivePrefix:   cfg.ArchivePrefix,
		SourceDevice:    cfg.SourceDevice,
		StorageTimeout:  cfg.GetStorageTimeout(),
		RegisterTimeout: cfg.GetRegisterTimeout(),
		Parallelism:     cfg.Parallelism,
	}
}

// Result 单个采集件的上传结果.
type Result struct {
	ArtifactID uint
	// ArchiveURL 归档的公开地址，无归档时为空.
	ArchiveURL string
	CreativeID uint
	Err        error
}

// Orchestrator 上传编排器. 同一 id 同时只允许一个上传.
type Orchestrator struct {
	store    Store
	archives ArchiveStore
	ingest   Ingestor
	opts     Options
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// New 创建编排器.
func New(store Store, archives ArchiveStore, ingest Ingestor, opts Options) *Orchestrator {
	if opts.ArchivePrefix == "" {
		opts.ArchivePrefix = "archives"
	}

	if opts.Parallelism <= 0 {
		opts.Parallelism = configs.DefaultClientParallelism
	}

	return &Orchestrator{
		store:    store,
		archives: archives,
		ingest:   ingest,
		opts:     opts,
		now:      time.Now,
		inFlight: make(map[uint]struct{}),
	}
}

// SetClock 替换时钟，用于测试.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

func (o *Orchestrator) ready() bool {
	return o != nil && o.store != nil && o.archives != nil && o.ingest != nil && o.inFlight != nil
}

func (o *Orchestrator) acquire(id uint) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[id]; busy {
		return false
	}

	o.inFlight[id] = struct{}{}

	return true
}

func (o *Orchestrator) release(id uint) {
	o.mu.Lock()
	delete(o.inFlight, id)
	o.mu.Unlock()
}

// Upload 上传单个采集件. 任一阶段失败时本地记录不变，可安全重试.
func (o *Orchestrator) Upload(ctx context.Context, id uint) (*Result, error) {
	if !o.ready() {
		return nil, ErrNotInitialized
	}

	if !o.acquire(id) {
		return nil, fmt.Errorf("%w: artifact %d", ErrUploadInFlight, id)
	}
	defer o.release(id)

	l := nlog.Logger()

	a, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Uploaded {
		return nil, fmt.Errorf("%w: artifact %d", ErrAlreadyUploaded, id)
	}

	res := &Result{ArtifactID: id}

	if a.ArchivePath != "" {
		res.ArchiveURL, err = o.uploadArchive(ctx, a.ArchivePath)
		if err != nil {
			l.Warn().Err(err).Uint("artifact_id", id).Msg("archive upload failed")

			return nil, err
		}

		l.Info().Uint("artifact_id", id).Str("url", res.ArchiveURL).Msg("archive uploaded")
	}

	reg, err := o.register(ctx, a, res.ArchiveURL)
	if err != nil {
		l.Warn().Err(err).Uint("artifact_id", id).Str("archive_url", res.ArchiveURL).Msg("registration failed")

		return nil, err
	}

	if reg.Creative != nil {
		res.CreativeID = reg.Creative.ID
	}

	if err := o.store.MarkUploaded(ctx, id, o.now()); err != nil {
		l.Error().Err(err).Uint("artifact_id", id).Uint("creative_id", res.CreativeID).Msg("registered but local mark failed")

		return nil, fmt.Errorf("mark artifact %d uploaded: %w", id, err)
	}

	l.Info().Uint("artifact_id", id).Uint("creative_id", res.CreativeID).Msg("artifact uploaded")

	return res, nil
}

// uploadArchive 第一阶段：归档直传对象存储.
func (o *Orchestrator) uploadArchive(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingLocalFile, path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingLocalFile, path)
	}

	key := storagekey.Build(o.opts.ArchivePrefix, filepath.Base(path), o.now(), "zip")

	ctx, cancel := withTimeout(ctx, o.opts.StorageTimeout)
	defer cancel()

	u, err := o.archives.Put(ctx, key, f, st.Size(), storagekey.ContentType(key))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUploadFailed, err)
	}

	return u, nil
}

// maxTitleRunes 服务端标题长度上限.
const maxTitleRunes = 512

// submissionTitle 服务端要求标题非空，采集时未填写则使用落地页地址.
func submissionTitle(a *queue.Artifact) string {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = a.LandingURL
	}

	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes])
	}

	return title
}

// register 第二阶段：登记元数据与小图片.
func (o *Orchestrator) register(ctx context.Context, a *queue.Artifact, archiveURL string) (*Registration, error) {
	sub := &Submission{
		Title:         submissionTitle(a),
		Description:   a.Description,
		Format:        a.Format,
		Type:          a.Type,
		Placement:     a.Placement,
		Country:       a.Country,
		Platform:      a.Platform,
		Cloaking:      a.Cloaking,
		LandingURL:    a.LandingURL,
		SourceLink:    a.SourceLink,
		SourceDevice:  o.opts.SourceDevice,
		CapturedAt:    a.CapturedAt,
		DownloadURL:   archiveURL,
		MediaPath:     pickImage(a.PreviewPath, a.FullPagePath),
		ThumbnailPath: pickImage(a.ThumbnailPath),
	}

	ctx, cancel := withTimeout(ctx, o.opts.RegisterTimeout)
	defer cancel()

	reg, err := o.ingest.Register(ctx, sub)
	if err != nil {
		if !errors.Is(err, ErrIngestionRejected) {
			err = fmt.Errorf("%w: %w", ErrIngestionRejected, err)
		}

		return nil, err
	}

	return reg, nil
}

// UploadAll 并发上传多个采集件，ids 为空时上传全部待上传项. 结果顺序与 ids 一致.
func (o *Orchestrator) UploadAll(ctx context.Context, ids []uint) ([]Result, error) {
	if !o.ready() {
		return nil, ErrNotInitialized
	}

	if len(ids) == 0 {
		pending, err := o.store.ListPending(ctx)
		if err != nil {
			return nil, err
		}

		for _, a := range pending {
			ids = append(ids, a.ID)
		}
	}

	results := make([]Result, len(ids))

	var g errgroup.Group

	g.SetLimit(o.opts.Parallelism)

	for i, id := range ids {
		g.Go(func() error {
			res, err := o.Upload(ctx, id)
			if err != nil {
				results[i] = Result{ArtifactID: id, Err: err}

				return nil
			}

			results[i] = *res

			return nil
		})
	}

	_ = g.Wait()

	return results, nil
}

// pickImage 返回第一个存在、非空且扩展名在白名单内的图片，缺失的文件直接跳过.
func pickImage(paths ...string) string {
	l := nlog.Logger()

	for _, p := range paths {
		if p == "" || !storagekey.IsImage(p) {
			continue
		}

		st, err := os.Stat(p)
		if err != nil {
			l.Debug().Err(err).Str("path", p).Msg("image skipped")

			continue
		}

		if st.IsDir() || st.Size() == 0 {
			continue
		}

		return p
	}

	return ""
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
