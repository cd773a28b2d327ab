package model

import (
	"context"

	"gorm.io/gorm"
)

// AutoMigrate 迁移全部模型.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(AllModels()...)
}
