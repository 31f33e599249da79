package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"ppm-tracker-backend/internal/model"
)

// GetSettings returns the stored settings, with defaults for unset keys.
func (s *gormStore) GetSettings(ctx context.Context) (model.Settings, error) {
	var rows []model.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return model.SettingsFromRows(rows), nil
}

func (s *gormStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	rows := settings.Rows()
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error; err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// EnsureSettings writes defaults for every key that has never been saved and
// leaves existing values untouched.
func (s *gormStore) EnsureSettings(ctx context.Context, defaults model.Settings) error {
	if err := defaults.Validate(); err != nil {
		return err
	}
	rows := defaults.Rows()
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}
