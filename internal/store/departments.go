package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"ppm-tracker-backend/internal/model"
)

func (s *gormStore) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	if err := s.db.WithContext(ctx).Order("name").Find(&departments).Error; err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// DepartmentOptions returns the departments as dropdown entries sorted by name.
func (s *gormStore) DepartmentOptions(ctx context.Context) ([]model.DepartmentOption, error) {
	departments, err := s.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]model.DepartmentOption, len(departments))
	for i, d := range departments {
		options[i] = model.DepartmentOption{ID: d.ID, Name: d.Name, Value: d.Name}
	}
	return options, nil
}

func (s *gormStore) GetDepartment(ctx context.Context, id int64) (*model.Department, error) {
	var d model.Department
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *gormStore) CreateDepartment(ctx context.Context, d *model.Department) error {
	d.Name = strings.TrimSpace(d.Name)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := departmentNameTaken(tx, d.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(d).Error; err != nil {
			return fmt.Errorf("create department %q: %w", d.Name, err)
		}
		return nil
	})
}

func (s *gormStore) UpdateDepartment(ctx context.Context, d *model.Department) error {
	d.Name = strings.TrimSpace(d.Name)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Department
		if err := tx.First(&existing, d.ID).Error; err != nil {
			return notFound(err)
		}
		if err := departmentNameTaken(tx, d.Name, d.ID); err != nil {
			return err
		}
		d.CreatedAt = existing.CreatedAt
		if err := tx.Save(d).Error; err != nil {
			return fmt.Errorf("update department %d: %w", d.ID, err)
		}
		return nil
	})
}

// DeleteDepartment refuses to remove a department that trainers still belong to.
func (s *gormStore) DeleteDepartment(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trainers int64
		if err := tx.Model(&model.Trainer{}).Where("department_id = ?", id).Count(&trainers).Error; err != nil {
			return fmt.Errorf("count trainers of department %d: %w", id, err)
		}
		if trainers > 0 {
			return fmt.Errorf("department %d has %d trainer(s): %w", id, trainers, ErrConflict)
		}
		res := tx.Delete(&model.Department{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete department %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// departmentNameTaken reports ErrConflict when another department already uses
// name, compared case-insensitively.
func departmentNameTaken(tx *gorm.DB, name string, exceptID int64) error {
	var count int64
	q := tx.Model(&model.Department{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check department name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("department %q already exists: %w", name, ErrConflict)
	}
	return nil
}
