package mysql

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"openbands/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox records an event in the same transaction as the state change
// it describes.
func insertOutbox(tx *gorm.DB, event string, communityID uint64, address string, extra map[string]any) error {
	body := map[string]any{
		"event_time":   time.Now().UTC().Format(time.RFC3339Nano),
		"community_id": communityID,
		"address":      address,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, _ := json.Marshal(body)

	ob := &model.EventOutbox{
		EventType:   event,
		CommunityID: communityID,
		Address:     address,
		Payload:     string(payload),
		Status:      0,
	}
	return tx.Create(ob).Error
}

func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.EventOutbox, error) {
	var list []model.EventOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = 0").
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": 2, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Update("status", 1).Error
}
