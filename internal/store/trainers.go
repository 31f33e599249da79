package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ppm-tracker-backend/internal/model"
)

// ListTrainers returns all trainers, or only those of one department when
// departmentID is set.
func (s *gormStore) ListTrainers(ctx context.Context, departmentID *int64) ([]model.Trainer, error) {
	q := s.db.WithContext(ctx).Order("name")
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	var trainers []model.Trainer
	if err := q.Find(&trainers).Error; err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	return trainers, nil
}

func (s *gormStore) GetTrainer(ctx context.Context, id int64) (*model.Trainer, error) {
	var t model.Trainer
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *gormStore) CreateTrainer(ctx context.Context, t *model.Trainer) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := departmentExists(tx, t.DepartmentID); err != nil {
			return err
		}
		if err := tx.Omit("Department").Create(t).Error; err != nil {
			return fmt.Errorf("create trainer %q: %w", t.Name, err)
		}
		return nil
	})
}

func (s *gormStore) UpdateTrainer(ctx context.Context, t *model.Trainer) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Trainer
		if err := tx.First(&existing, t.ID).Error; err != nil {
			return notFound(err)
		}
		if err := departmentExists(tx, t.DepartmentID); err != nil {
			return err
		}
		t.CreatedAt = existing.CreatedAt
		if err := tx.Omit("Department").Save(t).Error; err != nil {
			return fmt.Errorf("update trainer %d: %w", t.ID, err)
		}
		return nil
	})
}

func (s *gormStore) DeleteTrainer(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Trainer{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete trainer %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func departmentExists(tx *gorm.DB, id *int64) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&model.Department{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return fmt.Errorf("check department %d: %w", *id, err)
	}
	if count == 0 {
		return fmt.Errorf("department %d: %w", *id, ErrNotFound)
	}
	return nil
}
