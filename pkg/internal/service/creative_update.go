package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/creativevault/pkg/events"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/types"
	nlog "github.com/yeisme/creativevault/pkg/log"
)

// Update 部分更新素材.
//
// delete_file_type 存在时只清空对应资产并尽力删除对象. 其余更新在同一事务内
// 写入字段，记录若为 published 则回到 draft 并清空审核信息.
func (s *CreativeService) Update(ctx context.Context, form types.UpdateCreativeForm, files AssetFiles) (*types.UpdateResponse, error) {
	if form.CreativeID == 0 {
		return nil, newValidationError(CodeMissingRequiredField, "missing required field",
			map[string]string{"creative_id": "is required"})
	}

	current, err := s.load(ctx, s.db, form.CreativeID)
	if err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(form.DeleteFileType); t != "" {
		return s.deleteAsset(ctx, current, t)
	}

	updates, err := s.buildUpdates(ctx, form, files)
	if err != nil {
		return nil, err
	}

	redrafted := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&model.Creative{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&model.Creative{}).
			Where("id = ? AND status = ?", current.ID, string(model.StatusPublished)).
			Updates(map[string]any{
				"status":       string(model.StatusDraft),
				"moderated_at": nil,
				"moderated_by": nil,
			})
		if res.Error != nil {
			return res.Error
		}

		redrafted = res.RowsAffected > 0

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: update creative %d: %w", ErrInternalStorage, current.ID, err)
	}

	updated, err := s.load(ctx, s.db, current.ID)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}

	sort.Strings(fields)

	l := nlog.Logger()
	l.Info().Uint("creative_id", updated.ID).Strs("fields", fields).Bool("redrafted", redrafted).Msg("creative updated")

	s.publish(ctx, events.TopicCreativeUpdated, events.CreativeEvent{
		IDs:       []uint{updated.ID},
		Status:    string(updated.Status),
		Fields:    fields,
		Redrafted: redrafted,
	})

	return &types.UpdateResponse{Success: true, Creative: updated, Redrafted: redrafted}, nil
}

// deleteAsset 清空一个资产位，对象删除失败只记录日志.
func (s *CreativeService) deleteAsset(ctx context.Context, current *model.Creative, fileType string) (*types.UpdateResponse, error) {
	l := nlog.Logger()

	slot, err := model.ParseAssetSlot(fileType)
	if err != nil {
		return nil, newValidationError(CodeInvalidDeleteFileType, "invalid delete_file_type",
			map[string]string{"delete_file_type": "must be one of: media thumbnail download"})
	}

	old := current.AssetURL(slot)

	if err := s.db.WithContext(ctx).Model(&model.Creative{}).
		Where("id = ?", current.ID).
		UpdateColumn(slot.Column(), nil).Error; err != nil {
		return nil, fmt.Errorf("%w: clear %s: %w", ErrInternalStorage, slot.Column(), err)
	}

	if old != nil && s.blobs != nil {
		if key, ok := s.blobs.KeyFromURL(*old); ok {
			if err := s.blobs.Remove(ctx, key); err != nil {
				l.Warn().Err(err).Uint("creative_id", current.ID).Str("object_key", key).Msg("remove asset object failed")
			}
		} else {
			l.Warn().Uint("creative_id", current.ID).Str("url", *old).Msg("asset url outside bucket, object kept")
		}
	}

	updated, err := s.load(ctx, s.db, current.ID)
	if err != nil {
		return nil, err
	}

	l.Info().Uint("creative_id", current.ID).Str("field", slot.Column()).Msg("creative asset cleared")

	s.publish(ctx, events.TopicCreativeUpdated, events.CreativeEvent{
		IDs:    []uint{current.ID},
		Status: string(updated.Status),
		Fields: []string{slot.Column()},
	})

	return &types.UpdateResponse{Success: true, Creative: updated, DeletedFile: string(slot)}, nil
}

// buildUpdates 把请求中出现的字段转换为列更新.
func (s *CreativeService) buildUpdates(ctx context.Context, form types.UpdateCreativeForm, files AssetFiles) (map[string]any, error) {
	updates := map[string]any{}

	if form.Title != nil {
		title := strings.TrimSpace(*form.Title)
		if title == "" {
			return nil, newValidationError(CodeMissingRequiredField, "missing required field",
				map[string]string{"title": "is required"})
		}

		updates["title"] = title
	}

	if form.DownloadURL != nil && files.Archive != nil && strings.TrimSpace(*form.DownloadURL) != "" {
		return nil, newValidationError(CodeConflictingAssetSource, "asset supplied as both url and file",
			map[string]string{"download_url": "archive_file and download_url are mutually exclusive"})
	}

	codes := map[model.ReferenceKind]string{}

	for kind, v := range map[model.ReferenceKind]*string{
		model.KindFormat:    form.Format,
		model.KindType:      form.Type,
		model.KindPlacement: form.Placement,
		model.KindPlatform:  form.Platform,
	} {
		if v != nil && strings.TrimSpace(*v) != "" {
			codes[kind] = strings.TrimSpace(*v)
		}
	}

	if len(codes) > 0 {
		ids, err := s.refs.Resolve(ctx, codes)
		if err != nil {
			return nil, err
		}

		for kind, id := range ids {
			updates[kind.Column()] = id
		}
	}

	if form.Description != nil {
		updates["description"] = optionalString(*form.Description)
	}

	if form.Country != nil {
		updates["country_code"] = optionalString(*form.Country)
	}

	if form.Cloaking != nil {
		updates["cloaking"] = parseBool(*form.Cloaking)
	}

	if form.LandingURL != nil {
		updates["landing_url"] = strings.TrimSpace(*form.LandingURL)
	}

	if form.SourceLink != nil {
		updates["source_link"] = strings.TrimSpace(*form.SourceLink)
	}

	if form.SourceDevice != nil {
		updates["source_device"] = strings.TrimSpace(*form.SourceDevice)
	}

	now := s.now().UTC()

	if form.CapturedAt != nil && strings.TrimSpace(*form.CapturedAt) != "" {
		updates["captured_at"] = parseCapturedAt(*form.CapturedAt, now)
	}

	// 替换文件优先，其次是显式地址，最后是 current_* 保留值. 都没有则不改动.
	assets := []struct {
		slot     model.AssetSlot
		prefix   string
		part     *FilePart
		explicit *string
		current  *string
	}{
		{model.SlotMedia, PrefixMedia, files.Media, nil, form.CurrentMediaURL},
		{model.SlotThumbnail, PrefixThumbnails, files.Thumbnail, nil, form.CurrentThumbnailURL},
		{model.SlotDownload, PrefixArchives, files.Archive, form.DownloadURL, form.CurrentDownloadURL},
	}

	for _, a := range assets {
		if a.part != nil {
			if u, err := s.uploadPart(ctx, a.slot, a.prefix, a.part, now); err == nil {
				updates[a.slot.Column()] = u
			}

			continue
		}

		if u := pickURL(a.explicit, a.current); u != "" {
			updates[a.slot.Column()] = u
		}
	}

	return updates, nil
}

// pickURL 返回第一个合法的绝对地址.
func pickURL(candidates ...*string) string {
	for _, c := range candidates {
		if c == nil {
			continue
		}

		if v := strings.TrimSpace(*c); isAbsoluteURL(v) {
			return v
		}
	}

	return ""
}
