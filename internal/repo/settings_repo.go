package repo

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khayai/repairbot/internal/domain"
)

// GetTelegramConfig returns the stored staff-channel config or ErrNotFound.
func GetTelegramConfig(ctx context.Context, db *gorm.DB) (*domain.TelegramConfig, error) {
	return NewTable[domain.TelegramConfig](db).Find(ctx, Match{"config_key": domain.TelegramConfigKey})
}

// SaveTelegramConfig creates or updates the single config row.
func SaveTelegramConfig(ctx context.Context, db *gorm.DB, c *domain.TelegramConfig) error {
	c.ConfigKey = domain.TelegramConfigKey
	_, err := NewTable[domain.TelegramConfig](db).Upsert(ctx, Match{"config_key": c.ConfigKey}, c,
		"bot_token", "chat_id", "is_enabled")
	return err
}

// GetSetting decodes the JSON document stored under key into dst.
// ErrNotFound when the key was never written.
func GetSetting(ctx context.Context, db *gorm.DB, key string, dst any) error {
	var s domain.SystemSetting
	if err := db.WithContext(ctx).Where("key = ?", key).Take(&s).Error; err != nil {
		return wrap("get", "system_settings", err)
	}
	if err := json.Unmarshal(s.Value, dst); err != nil {
		return wrap("decode", "system_settings", err)
	}
	return nil
}

// PutSetting stores v as JSON under key, replacing any previous document.
func PutSetting(ctx context.Context, db *gorm.DB, key string, v any, now time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	row := domain.SystemSetting{Key: key, Value: datatypes.JSON(raw), UpdatedAt: now}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	return wrap("put", "system_settings", err)
}
