package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ppm-tracker-backend/internal/model"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness or
	// reference rule.
	ErrConflict = errors.New("conflict")
)

// Store defines the interface for all database operations.
type Store interface {
	ListDepartments(ctx context.Context) ([]model.Department, error)
	DepartmentOptions(ctx context.Context) ([]model.DepartmentOption, error)
	GetDepartment(ctx context.Context, id int64) (*model.Department, error)
	CreateDepartment(ctx context.Context, d *model.Department) error
	UpdateDepartment(ctx context.Context, d *model.Department) error
	DeleteDepartment(ctx context.Context, id int64) error

	ListTrainers(ctx context.Context, departmentID *int64) ([]model.Trainer, error)
	GetTrainer(ctx context.Context, id int64) (*model.Trainer, error)
	CreateTrainer(ctx context.Context, t *model.Trainer) error
	UpdateTrainer(ctx context.Context, t *model.Trainer) error
	DeleteTrainer(ctx context.Context, id int64) error

	ListEquipment(ctx context.Context) ([]model.Equipment, error)
	GetEquipmentBySerial(ctx context.Context, serial string) (*model.Equipment, error)
	CreateEquipment(ctx context.Context, e *model.Equipment) error
	UpdateEquipment(ctx context.Context, serial string, e *model.Equipment) error
	DeleteEquipment(ctx context.Context, serial string) error

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)

	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error
	EnsureSettings(ctx context.Context, defaults model.Settings) error

	Snapshot(ctx context.Context) (*Snapshot, error)
	RestoreSnapshot(ctx context.Context, snap *Snapshot) error
}

// Snapshot is a full copy of every table, used by backups.
type Snapshot struct {
	Version       int                      `json:"version"`
	CreatedAt     time.Time                `json:"created_at"`
	Departments   []model.Department       `json:"departments"`
	Trainers      []model.Trainer          `json:"trainers"`
	Equipment     []model.Equipment        `json:"equipment"`
	Subscriptions []model.PushSubscription `json:"subscriptions"`
	Settings      []model.Setting          `json:"settings"`
}

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = 1

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
