package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khayai/repairbot/internal/domain"
)

// IncrementCounter atomically bumps (counterType, period) and returns the
// new value. The first call for a period creates the row with value 1.
func IncrementCounter(ctx context.Context, db *gorm.DB, counterType, period string, now time.Time) (int64, error) {
	var value int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := domain.PeriodCounter{CounterType: counterType, Period: period, Value: 1, UpdatedAt: now}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "counter_type"}, {Name: "period"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      gorm.Expr("system_config.value + 1"),
				"updated_at": now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		var cur domain.PeriodCounter
		if err := tx.Where("counter_type = ? AND period = ?", counterType, period).Take(&cur).Error; err != nil {
			return err
		}
		value = cur.Value
		return nil
	})
	if err != nil {
		return 0, wrap("increment", "system_config", err)
	}
	return value, nil
}

// GetCounter returns the current value, or 0 when the period was never used.
func GetCounter(ctx context.Context, db *gorm.DB, counterType, period string) (int64, error) {
	var cur domain.PeriodCounter
	err := db.WithContext(ctx).Where("counter_type = ? AND period = ?", counterType, period).Take(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("get", "system_config", err)
	}
	return cur.Value, nil
}

// SetCounter forces a counter to value, creating the row if needed.
func SetCounter(ctx context.Context, db *gorm.DB, counterType, period string, value int64, now time.Time) error {
	row := domain.PeriodCounter{CounterType: counterType, Period: period, Value: value, UpdatedAt: now}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "counter_type"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	return wrap("set", "system_config", err)
}

// RaiseCounter lifts a counter to floor when it is below it, creating the
// row if needed.
func RaiseCounter(ctx context.Context, db *gorm.DB, counterType, period string, floor int64, now time.Time) error {
	row := domain.PeriodCounter{CounterType: counterType, Period: period, Value: floor, UpdatedAt: now}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "counter_type"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      gorm.Expr("CASE WHEN system_config.value < ? THEN ? ELSE system_config.value END", floor, floor),
			"updated_at": now,
		}),
	}).Create(&row).Error
	return wrap("raise", "system_config", err)
}

// ListCounters returns all periods of a counter type, newest period first.
func ListCounters(ctx context.Context, db *gorm.DB, counterType string) ([]domain.PeriodCounter, error) {
	var out []domain.PeriodCounter
	err := db.WithContext(ctx).
		Where("counter_type = ?", counterType).
		Order("period desc").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list", "system_config", err)
	}
	return out, nil
}

// DeleteCountersBefore removes every period of counterType strictly older
// than period. Periods are fixed-width YYMM strings, so string order is
// chronological within a century.
func DeleteCountersBefore(ctx context.Context, db *gorm.DB, counterType, period string) (int64, error) {
	return NewTable[domain.PeriodCounter](db).DeleteWhere(ctx, "counter_type = ? AND period < ?", counterType, period)
}
