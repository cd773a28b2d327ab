// Package queue 采集端本地持久队列，保存待上传与已上传的采集件.
//
// 队列基于单文件 SQLite（WAL + synchronous=FULL），写入在调用返回前落盘.
//
// Example:
//
//	q, err := queue.Open(ctx, "capture-queue.db")
//	if err != nil {
//	    // 处理错误
//	}
//	defer q.Close()
//
//	id, err := q.Enqueue(ctx, &queue.Artifact{LandingURL: "https://example.com"})
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	dbc "github.com/yeisme/creativevault/pkg/internal/storage/db"
	"github.com/yeisme/creativevault/pkg/rule"
)

// ErrArtifactNotFound 队列中不存在该采集件.
var ErrArtifactNotFound = errors.New("queue: artifact not found")

const pragmas = "_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"

// Artifact 一次采集的产物.
type Artifact struct {
	ID          uint   `gorm:"primarykey"              json:"id"`
	LandingURL  string `gorm:"size:2048;not null"      json:"landingUrl"  rule:"required"`
	Title       string `gorm:"size:512"                json:"title"`
	Description string `gorm:"type:text"               json:"description"`
	SourceLink  string `gorm:"size:2048"               json:"sourceLink"`

	// 本地文件路径，空表示没有该文件.
	PreviewPath   string `json:"previewPath"`
	FullPagePath  string `json:"fullPagePath"`
	ThumbnailPath string `json:"thumbnailPath"`
	ArchivePath   string `json:"archivePath"`
	ArchiveSize   *int64 `json:"archiveSize"`

	Format    string `gorm:"size:64" json:"format"`
	Type      string `gorm:"size:64" json:"type"`
	Placement string `gorm:"size:64" json:"placement"`
	Platform  string `gorm:"size:64" json:"platform"`
	Country   string `gorm:"size:8"  json:"country"`
	Cloaking  bool   `json:"cloaking"`

	CapturedAt time.Time  `gorm:"index;not null"                 json:"capturedAt"`
	Uploaded   bool       `gorm:"index;not null;default:false"   json:"uploaded"`
	UploadedAt *time.Time `json:"uploadedAt"`
}

// TableName 表名.
func (Artifact) TableName() string {
	return "captured_artifacts"
}

// Queue 本地采集队列.
type Queue struct {
	db  *gorm.DB
	now func() time.Time
}

// Open 打开（必要时创建）path 处的队列文件.
func Open(ctx context.Context, path string) (*Queue, error) {
	client, err := dbc.Open(ctx, sqlite.Open(fmt.Sprintf("%s?%s", path, pragmas)), dbc.Options{})
	if err != nil {
		return nil, fmt.Errorf("open capture queue %s: %w", path, err)
	}

	sqlDB, err := client.DB.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)

	return New(ctx, client.DB)
}

// New 在已有连接上初始化队列并迁移表结构.
func New(ctx context.Context, db *gorm.DB) (*Queue, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Artifact{}); err != nil {
		return nil, fmt.Errorf("migrate capture queue: %w", err)
	}

	return &Queue{db: db, now: time.Now}, nil
}

// Close 关闭底层连接.
func (q *Queue) Close() error {
	sqlDB, err := q.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Enqueue 写入新采集件并返回其 id. 上传状态总是重置为未上传.
func (q *Queue) Enqueue(ctx context.Context, a *Artifact) (uint, error) {
	if err := rule.ValidateStruct(a); err != nil {
		return 0, err
	}

	a.ID = 0
	a.Uploaded = false
	a.UploadedAt = nil

	if a.CapturedAt.IsZero() {
		a.CapturedAt = q.now()
	}

	a.CapturedAt = a.CapturedAt.UTC()

	if err := q.db.WithContext(ctx).Create(a).Error; err != nil {
		return 0, fmt.Errorf("enqueue artifact: %w", err)
	}

	return a.ID, nil
}

// ListAll 按采集时间倒序列出全部采集件.
func (q *Queue) ListAll(ctx context.Context) ([]Artifact, error) {
	var items []Artifact

	err := q.db.WithContext(ctx).Order("captured_at DESC, id DESC").Find(&items).Error

	return items, err
}

// ListPending 列出未上传的采集件，顺序同 ListAll.
func (q *Queue) ListPending(ctx context.Context) ([]Artifact, error) {
	var items []Artifact

	err := q.db.WithContext(ctx).
		Where("uploaded = ?", false).
		Order("captured_at DESC, id DESC").
		Find(&items).Error

	return items, err
}

// Get 读取单个采集件.
func (q *Queue) Get(ctx context.Context, id uint) (*Artifact, error) {
	var a Artifact
	if err := q.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}

		return nil, err
	}

	return &a, nil
}

// MarkUploaded 标记为已上传. 已上传的记录保持原上传时间不变.
func (q *Queue) MarkUploaded(ctx context.Context, id uint, when time.Time) error {
	res := q.db.WithContext(ctx).
		Model(&Artifact{}).
		Where("id = ? AND uploaded = ?", id, false).
		Updates(map[string]any{"uploaded": true, "uploaded_at": when.UTC()})
	if res.Error != nil {
		return fmt.Errorf("mark artifact %d uploaded: %w", id, res.Error)
	}

	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := q.db.WithContext(ctx).Model(&Artifact{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}

	if n == 0 {
		return ErrArtifactNotFound
	}

	return nil
}

// Delete 删除采集件，不存在时不报错.
func (q *Queue) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&Artifact{}, id).Error
}

// CountPending 返回未上传数量.
func (q *Queue) CountPending(ctx context.Context) (int64, error) {
	var n int64

	err := q.db.WithContext(ctx).Model(&Artifact{}).Where("uploaded = ?", false).Count(&n).Error

	return n, err
}
