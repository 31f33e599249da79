package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ppm-tracker-backend/internal/model"
)

// Snapshot reads every table inside one transaction.
func (s *gormStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Version: SnapshotVersion, CreatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&snap.Departments).Error; err != nil {
			return fmt.Errorf("read departments: %w", err)
		}
		if err := tx.Order("id").Find(&snap.Trainers).Error; err != nil {
			return fmt.Errorf("read trainers: %w", err)
		}
		if err := tx.Order("id").Find(&snap.Equipment).Error; err != nil {
			return fmt.Errorf("read equipment: %w", err)
		}
		if err := tx.Order("endpoint").Find(&snap.Subscriptions).Error; err != nil {
			return fmt.Errorf("read subscriptions: %w", err)
		}
		if err := tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&snap.Settings).Error; err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreSnapshot replaces the contents of every table with snap.
func (s *gormStore) RestoreSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("restore: empty snapshot")
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("restore: unsupported snapshot version %d", snap.Version)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		// Trainers reference departments and go first.
		for _, m := range []any{&model.Trainer{}, &model.Equipment{}, &model.Department{}, &model.PushSubscription{}, &model.Setting{}} {
			if err := all.Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}

		if err := createAll(tx, snap.Departments); err != nil {
			return err
		}
		if err := createAll(tx.Omit("Department"), snap.Trainers); err != nil {
			return err
		}
		if err := createAll(tx, snap.Equipment); err != nil {
			return err
		}
		if err := createAll(tx, snap.Subscriptions); err != nil {
			return err
		}
		if err := createAll(tx, snap.Settings); err != nil {
			return err
		}

		if tx.Dialector.Name() == "postgres" {
			for _, table := range []string{"departments", "trainers", "equipment"} {
				if err := tx.Exec(fmt.Sprintf(
					"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)", table,
				)).Error; err != nil {
					return fmt.Errorf("reset %s sequence: %w", table, err)
				}
			}
		}
		return nil
	})
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
		return fmt.Errorf("restore %T: %w", rows, err)
	}
	return nil
}
