package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ppm-tracker-backend/internal/model"
)

func (s *gormStore) ListEquipment(ctx context.Context) ([]model.Equipment, error) {
	var items []model.Equipment
	if err := s.db.WithContext(ctx).Order("serial").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return items, nil
}

func (s *gormStore) GetEquipmentBySerial(ctx context.Context, serial string) (*model.Equipment, error) {
	var e model.Equipment
	if err := s.db.WithContext(ctx).Where("serial = ?", serial).First(&e).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *gormStore) CreateEquipment(ctx context.Context, e *model.Equipment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := serialTaken(tx, e.Serial, 0); err != nil {
			return err
		}
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("create equipment %q: %w", e.Serial, err)
		}
		return nil
	})
}

// UpdateEquipment replaces the record stored under serial. e.Serial may name a
// new serial as long as no other record uses it.
func (s *gormStore) UpdateEquipment(ctx context.Context, serial string, e *model.Equipment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Equipment
		if err := tx.Where("serial = ?", serial).First(&existing).Error; err != nil {
			return notFound(err)
		}
		if e.Serial == "" {
			e.Serial = existing.Serial
		}
		if e.Serial != existing.Serial {
			if err := serialTaken(tx, e.Serial, existing.ID); err != nil {
				return err
			}
		}
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
		if err := tx.Save(e).Error; err != nil {
			return fmt.Errorf("update equipment %q: %w", serial, err)
		}
		return nil
	})
}

func (s *gormStore) DeleteEquipment(ctx context.Context, serial string) error {
	res := s.db.WithContext(ctx).Where("serial = ?", serial).Delete(&model.Equipment{})
	if res.Error != nil {
		return fmt.Errorf("delete equipment %q: %w", serial, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func serialTaken(tx *gorm.DB, serial string, exceptID int64) error {
	var count int64
	q := tx.Model(&model.Equipment{}).Where("serial = ?", serial)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check serial: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("equipment %q already exists: %w", serial, ErrConflict)
	}
	return nil
}
