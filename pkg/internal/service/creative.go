package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/creativevault/pkg/events"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/types"
	nlog "github.com/yeisme/creativevault/pkg/log"
	"github.com/yeisme/creativevault/pkg/metrics"
	"github.com/yeisme/creativevault/pkg/rule"
	"github.com/yeisme/creativevault/pkg/storagekey"
)

// CreativeService 素材摄取与更新.
type CreativeService struct {
	db     *gorm.DB
	refs   *ReferenceService
	blobs  BlobStore
	events EventPublisher
	now    func() time.Time
}

// NewCreativeService 创建素材服务. pub 可为 nil.
func NewCreativeService(db *gorm.DB, refs *ReferenceService, blobs BlobStore, pub EventPublisher) *CreativeService {
	return &CreativeService{
		db:     db,
		refs:   refs,
		blobs:  blobs,
		events: pub,
		now:    time.Now,
	}
}

// SetClock 替换时间源.
func (s *CreativeService) SetClock(now func() time.Time) {
	s.now = now
}

// Create 登记一条新素材，状态为 draft.
//
// 四个参考代码全部解析成功才会写库；单个资产上传失败只会让该资产地址为空.
func (s *CreativeService) Create(ctx context.Context, form types.CreativeForm, files AssetFiles) (*types.CreateResponse, error) {
	l := nlog.Logger()

	trimCreativeForm(&form)

	if err := rule.ValidateStruct(&form); err != nil {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()

		return nil, fromRuleError(err)
	}

	if conflicts := assetConflicts(form, files); len(conflicts) > 0 {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()

		return nil, newValidationError(CodeConflictingAssetSource, "asset supplied as both url and file", conflicts)
	}

	ids, err := s.refs.Resolve(ctx, map[model.ReferenceKind]string{
		model.KindFormat:    form.Format,
		model.KindType:      form.Type,
		model.KindPlacement: form.Placement,
		model.KindPlatform:  form.Platform,
	})
	if err != nil {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()

		return nil, err
	}

	now := s.now().UTC()
	uploads := types.FileUploads{}

	mediaURL := s.resolveAsset(ctx, model.SlotMedia, PrefixMedia, files.Media, form.MediaURL, now)
	thumbURL := s.resolveAsset(ctx, model.SlotThumbnail, PrefixThumbnails, files.Thumbnail, form.ThumbnailURL, now)
	downloadURL := s.resolveAsset(ctx, model.SlotDownload, PrefixArchives, files.Archive, form.DownloadURL, now)

	uploads.Media = mediaURL != nil
	uploads.Thumbnail = thumbURL != nil
	uploads.Archive = downloadURL != nil

	rec := &model.Creative{
		Title:        form.Title,
		Description:  optionalString(form.Description),
		FormatID:     ids[model.KindFormat],
		TypeID:       ids[model.KindType],
		PlacementID:  ids[model.KindPlacement],
		PlatformID:   ids[model.KindPlatform],
		CountryCode:  optionalString(form.Country),
		Cloaking:     parseBool(form.Cloaking),
		MediaURL:     mediaURL,
		ThumbnailURL: thumbURL,
		DownloadURL:  downloadURL,
		LandingURL:   form.LandingURL,
		SourceLink:   form.SourceLink,
		SourceDevice: form.SourceDevice,
		CapturedAt:   parseCapturedAt(form.CapturedAt, now),
		Status:       model.StatusDraft,
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		metrics.IngestCounter.WithLabelValues("failed").Inc()

		return nil, fmt.Errorf("%w: insert creative: %w", ErrInternalStorage, err)
	}

	created, err := s.load(ctx, s.db, rec.ID)
	if err != nil {
		metrics.IngestCounter.WithLabelValues("failed").Inc()

		return nil, err
	}

	metrics.IngestCounter.WithLabelValues("created").Inc()
	l.Info().Uint("creative_id", created.ID).Str("title", created.Title).Msg("creative ingested")

	s.publish(ctx, events.TopicCreativeCreated, events.CreativeEvent{
		IDs:    []uint{created.ID},
		Status: string(created.Status),
	})

	return &types.CreateResponse{
		Success:  true,
		Creative: created,
		URLs: types.AssetURLs{
			MediaURL:     created.MediaURL,
			ThumbnailURL: created.ThumbnailURL,
			DownloadURL:  created.DownloadURL,
		},
		FileUploads: uploads,
	}, nil
}

// resolveAsset 优先上传文件，否则采用合法的外部地址. 两者都不可用时返回 nil.
func (s *CreativeService) resolveAsset(ctx context.Context, slot model.AssetSlot, prefix string,
	part *FilePart, externalURL string, now time.Time,
) *string {
	if part != nil {
		u, err := s.uploadPart(ctx, slot, prefix, part, now)
		if err != nil {
			return nil
		}

		return &u
	}

	if externalURL == "" {
		return nil
	}

	if !isAbsoluteURL(externalURL) {
		l := nlog.Logger()
		l.Warn().Str("field", slot.Column()).Str("url", externalURL).Msg("malformed asset url dropped")

		return nil
	}

	return &externalURL
}

// uploadPart 上传单个文件，失败记录日志与指标.
func (s *CreativeService) uploadPart(ctx context.Context, slot model.AssetSlot, prefix string, part *FilePart, now time.Time) (string, error) {
	l := nlog.Logger()

	if s.blobs == nil {
		metrics.AssetUploadCounter.WithLabelValues(string(slot), "failed").Inc()
		l.Warn().Str("field", string(slot)).Msg("object storage not configured, asset skipped")

		return "", ErrInternalStorage
	}

	key := storagekey.Build(prefix, part.Filename, now, defaultExt(slot))

	contentType := part.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storagekey.ContentType(key)
	}

	rc, err := part.Open()
	if err != nil {
		metrics.AssetUploadCounter.WithLabelValues(string(slot), "failed").Inc()
		l.Warn().Err(err).Str("field", string(slot)).Msg("open asset part failed")

		return "", err
	}
	defer rc.Close()

	u, err := s.blobs.Put(ctx, key, rc, part.Size, contentType)
	if err != nil {
		metrics.AssetUploadCounter.WithLabelValues(string(slot), "failed").Inc()
		l.Warn().Err(err).Str("field", string(slot)).Str("object_key", key).Msg("asset upload failed")

		return "", err
	}

	metrics.AssetUploadCounter.WithLabelValues(string(slot), "success").Inc()
	l.Debug().Str("field", string(slot)).Str("object_key", key).Msg("asset uploaded")

	return u, nil
}

// load 读取记录并预加载参考数据.
func (s *CreativeService) load(ctx context.Context, db *gorm.DB, id uint) (*model.Creative, error) {
	var rec model.Creative

	err := db.WithContext(ctx).Scopes(withReferences).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: load creative %d: %w", ErrInternalStorage, id, err)
	}

	return &rec, nil
}

// publish 发布事件，失败只记录日志.
func (s *CreativeService) publish(ctx context.Context, topic string, evt events.CreativeEvent) {
	publishEvent(ctx, s.events, topic, evt)
}

func publishEvent(ctx context.Context, pub EventPublisher, topic string, evt events.CreativeEvent) {
	if pub == nil {
		return
	}

	if err := pub.PublishCreative(ctx, topic, evt); err != nil {
		l := nlog.Logger()
		l.Warn().Err(err).Str("topic", topic).Msg("publish catalog event failed")
	}
}

func trimCreativeForm(f *types.CreativeForm) {
	for _, p := range []*string{
		&f.Title, &f.Description, &f.Format, &f.Type, &f.Placement, &f.Platform, &f.Country,
		&f.Cloaking, &f.LandingURL, &f.SourceLink, &f.SourceDevice, &f.CapturedAt,
		&f.MediaURL, &f.ThumbnailURL, &f.DownloadURL,
	} {
		*p = strings.TrimSpace(*p)
	}
}

func assetConflicts(form types.CreativeForm, files AssetFiles) map[string]string {
	conflicts := map[string]string{}

	if files.Media != nil && form.MediaURL != "" {
		conflicts["media_url"] = "media_file and media_url are mutually exclusive"
	}

	if files.Thumbnail != nil && form.ThumbnailURL != "" {
		conflicts["thumbnail_url"] = "thumbnail_file and thumbnail_url are mutually exclusive"
	}

	if files.Archive != nil && form.DownloadURL != "" {
		conflicts["download_url"] = "archive_file and download_url are mutually exclusive"
	}

	return conflicts
}

func defaultExt(slot model.AssetSlot) string {
	if slot == model.SlotDownload {
		return "zip"
	}

	return "png"
}

// parseBool 只有 "true" 视为真.
func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// parseCapturedAt 解析 ISO-8601 时间，失败时使用 fallback. 返回 UTC.
func parseCapturedAt(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback.UTC()
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}

	l := nlog.Logger()
	l.Debug().Str("captured_at", s).Msg("unparseable capturedAt, using server time")

	return fallback.UTC()
}
