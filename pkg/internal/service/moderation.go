package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	ctxpkg "github.com/yeisme/creativevault/pkg/context"
	"github.com/yeisme/creativevault/pkg/events"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/types"
	nlog "github.com/yeisme/creativevault/pkg/log"
	"github.com/yeisme/creativevault/pkg/metrics"
	"github.com/yeisme/creativevault/pkg/rule"
)

// ModerationService 批量审核、状态统计与批量删除.
type ModerationService struct {
	db     *gorm.DB
	events EventPublisher
	now    func() time.Time
}

// NewModerationService 创建审核服务. pub 可为 nil.
func NewModerationService(db *gorm.DB, pub EventPublisher) *ModerationService {
	return &ModerationService{db: db, events: pub, now: time.Now}
}

// SetClock 替换时间源.
func (s *ModerationService) SetClock(now func() time.Time) {
	s.now = now
}

// Moderate 批量切换状态. 不存在的 id 不出现在结果中.
//
// approve 写入 moderatedAt/moderatedBy；draft 只修改状态，保留审核信息.
func (s *ModerationService) Moderate(ctx context.Context, req types.ModerationRequest) (*types.ModerationResponse, error) {
	if err := rule.ValidateStruct(&req); err != nil {
		return nil, fromRuleError(err)
	}

	action, err := model.ParseModerationAction(req.Action)
	if err != nil {
		return nil, newValidationError(CodeInvalidField, "invalid action", map[string]string{"action": err.Error()})
	}

	operator := strings.TrimSpace(req.ModeratedBy)
	if operator == "" {
		operator = ctxpkg.Operator(ctx)
	}

	target := action.TargetStatus()
	ids := uniqueIDs(req.CreativeIDs)
	updated := []model.Creative{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []uint
		if err := tx.Model(&model.Creative{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return err
		}

		if len(found) == 0 {
			return nil
		}

		values := map[string]any{"status": string(target)}
		if action == model.ActionApprove {
			values["moderated_at"] = s.now().UTC()
			values["moderated_by"] = operator
		}

		if err := tx.Model(&model.Creative{}).Where("id IN ?", found).Updates(values).Error; err != nil {
			return err
		}

		return tx.Scopes(withReferences).Where("id IN ?", found).Order("id").Find(&updated).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: moderate: %w", ErrInternalStorage, err)
	}

	updatedIDs := make([]uint, 0, len(updated))
	for _, c := range updated {
		updatedIDs = append(updatedIDs, c.ID)
	}

	metrics.ModerationCounter.WithLabelValues(string(action)).Add(float64(len(updated)))

	l := nlog.Logger()
	l.Info().Str("action", string(action)).Str("operator", operator).
		Int("requested", len(ids)).Int("updated", len(updated)).Msg("creatives moderated")

	if len(updatedIDs) > 0 {
		publishEvent(ctx, s.events, events.TopicCreativeModerated, events.CreativeEvent{
			IDs:      updatedIDs,
			Status:   string(target),
			Operator: operator,
		})
	}

	return &types.ModerationResponse{
		NewStatus:        target,
		UpdatedCreatives: updated,
		Count:            len(updated),
	}, nil
}

// Counts 返回各状态的记录数.
func (s *ModerationService) Counts(ctx context.Context) (*types.StatusCounts, error) {
	var rows []struct {
		Status string
		N      int64
	}

	err := s.db.WithContext(ctx).
		Model(&model.Creative{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: count by status: %w", ErrInternalStorage, err)
	}

	counts := &types.StatusCounts{}

	for _, r := range rows {
		switch model.CreativeStatus(r.Status) {
		case model.StatusDraft:
			counts.Draft = r.N
		case model.StatusPublished:
			counts.Published = r.N
		}

		counts.Total += r.N
	}

	return counts, nil
}

// Delete 批量删除记录，不删除对象存储中的资产.
func (s *ModerationService) Delete(ctx context.Context, req types.DeleteRequest) (*types.DeleteResponse, error) {
	if err := rule.ValidateStruct(&req); err != nil {
		return nil, fromRuleError(err)
	}

	ids := uniqueIDs(req.CreativeIDs)
	deleted := []uint{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Creative{}).Where("id IN ?", ids).Order("id").Pluck("id", &deleted).Error; err != nil {
			return err
		}

		if len(deleted) == 0 {
			return nil
		}

		return tx.Where("id IN ?", deleted).Delete(&model.Creative{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: delete: %w", ErrInternalStorage, err)
	}

	l := nlog.Logger()
	l.Info().Int("requested", len(ids)).Int("deleted", len(deleted)).Msg("creatives deleted")

	if len(deleted) > 0 {
		publishEvent(ctx, s.events, events.TopicCreativeDeleted, events.CreativeEvent{
			IDs:      deleted,
			Operator: ctxpkg.Operator(ctx),
		})
	}

	return &types.DeleteResponse{DeletedCount: len(deleted), DeletedIDs: deleted}, nil
}

// uniqueIDs 去重并排序，忽略 0.
func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))

	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}

	slices.Sort(out)

	return slices.Compact(out)
}
