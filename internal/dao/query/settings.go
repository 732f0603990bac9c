package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pyraledger/internal/dao"
	"pyraledger/internal/model/entity"
)

type settingsDao struct {
	db *gorm.DB
}

func NewSettingsDao(db *gorm.DB) dao.SettingsDao {
	return &settingsDao{db: db}
}

func (s *settingsDao) GetSetting(ctx context.Context, key string) (string, error) {
	var setting entity.Setting
	result := s.db.WithContext(ctx).Where("key_name = ?", key).Limit(1).Find(&setting)
	if result.Error != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return "", nil
	}
	return setting.Value, nil
}

func (s *settingsDao) SetSetting(ctx context.Context, key, value string) error {
	setting := entity.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (s *settingsDao) IsAlertProcessed(ctx context.Context, alertID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.ProcessedAlert{}).
		Where("alert_id = ?", alertID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check alert %s: %w", alertID, err)
	}
	return count > 0, nil
}

func (s *settingsDao) MarkAlertProcessed(ctx context.Context, alertID string) error {
	record := entity.ProcessedAlert{
		AlertID:     alertID,
		ProcessedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		// 并发下重复标记视为已完成
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to mark alert %s processed: %w", alertID, err)
	}
	return nil
}

func (s *settingsDao) GetCapitalOverride(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) (float64, bool, error) {
	var override entity.CapitalOverride
	result := s.db.WithContext(ctx).
		Where("exchange = ? AND base = ? AND quote = ? AND timeframe = ? AND pyramid_index = ?",
			exchange, base, quote, timeframe, pyramidIndex).
		Limit(1).Find(&override)
	if result.Error != nil {
		return 0, false, fmt.Errorf("failed to get capital override: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return override.CapitalQuote, true, nil
}

func (s *settingsDao) SetCapitalOverride(ctx context.Context, override *entity.CapitalOverride) error {
	override.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(override).Error
	if err != nil {
		return fmt.Errorf("failed to set capital override: %w", err)
	}
	return nil
}

func (s *settingsDao) DeleteCapitalOverride(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) error {
	err := s.db.WithContext(ctx).
		Where("exchange = ? AND base = ? AND quote = ? AND timeframe = ? AND pyramid_index = ?",
			exchange, base, quote, timeframe, pyramidIndex).
		Delete(&entity.CapitalOverride{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete capital override: %w", err)
	}
	return nil
}

func (s *settingsDao) ClearCapitalOverrides(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&entity.CapitalOverride{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear capital overrides: %w", err)
	}
	return nil
}

func (s *settingsDao) ListCapitalOverrides(ctx context.Context) ([]entity.CapitalOverride, error) {
	var overrides []entity.CapitalOverride
	err := s.db.WithContext(ctx).
		Order("exchange, base, quote, timeframe, pyramid_index").
		Find(&overrides).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list capital overrides: %w", err)
	}
	return overrides, nil
}

func (s *settingsDao) GetSymbolRule(ctx context.Context, exchange, base, quote string) (*entity.SymbolRule, error) {
	var rule entity.SymbolRule
	result := s.db.WithContext(ctx).
		Where("exchange = ? AND base = ? AND quote = ?", exchange, base, quote).
		Limit(1).Find(&rule)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get symbol rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (s *settingsDao) UpsertSymbolRule(ctx context.Context, rule *entity.SymbolRule) error {
	rule.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rule).Error
	if err != nil {
		return fmt.Errorf("failed to upsert symbol rule: %w", err)
	}
	return nil
}
