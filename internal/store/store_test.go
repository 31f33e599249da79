package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ppm-tracker-backend/internal/model"
	"ppm-tracker-backend/internal/quarter"
	"ppm-tracker-backend/internal/testutil"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore opens a private in-memory database with every table migrated.
func newSQLiteStore(t *testing.T) Store {
	return NewGormStore(testutil.NewSQLiteDB(t))
}

func ptr[T any](v T) *T { return &v }

func TestDeleteDepartment_RefusesWhenTrainersExist_SQL(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "trainers" WHERE department_id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := s.DeleteDepartment(context.Background(), 7)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubscription_SQL(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = $1`)).
		WithArgs("https://push.example/abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteSubscription(context.Background(), "https://push.example/abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartments(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	icu := &model.Department{Name: " ICU ", Information: "intensive care"}
	require.NoError(t, s.CreateDepartment(ctx, icu))
	assert.Equal(t, "ICU", icu.Name)
	require.NoError(t, s.CreateDepartment(ctx, &model.Department{Name: "Cardiology"}))

	err := s.CreateDepartment(ctx, &model.Department{Name: "icu"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetDepartment(ctx, icu.ID)
	require.NoError(t, err)
	assert.Equal(t, "intensive care", got.Information)

	_, err = s.GetDepartment(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateDepartment(ctx, &model.Department{ID: icu.ID, Name: "CARDIOLOGY"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, s.UpdateDepartment(ctx, &model.Department{ID: icu.ID, Name: "icu"}))
	err = s.UpdateDepartment(ctx, &model.Department{ID: 999, Name: "Radiology"})
	assert.ErrorIs(t, err, ErrNotFound)

	options, err := s.DepartmentOptions(ctx)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, model.DepartmentOption{ID: options[0].ID, Name: "Cardiology", Value: "Cardiology"}, options[0])
	assert.Equal(t, "icu", options[1].Name)

	require.NoError(t, s.CreateTrainer(ctx, &model.Trainer{Name: "Sara", DepartmentID: ptr(icu.ID)}))
	assert.ErrorIs(t, s.DeleteDepartment(ctx, icu.ID), ErrConflict)
	assert.ErrorIs(t, s.DeleteDepartment(ctx, 999), ErrNotFound)
	require.NoError(t, s.DeleteDepartment(ctx, options[0].ID))
}

func TestTrainers(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	icu := &model.Department{Name: "ICU"}
	er := &model.Department{Name: "ER"}
	require.NoError(t, s.CreateDepartment(ctx, icu))
	require.NoError(t, s.CreateDepartment(ctx, er))

	err := s.CreateTrainer(ctx, &model.Trainer{Name: "Ghost", DepartmentID: ptr(int64(999))})
	assert.ErrorIs(t, err, ErrNotFound)

	sara := &model.Trainer{Name: "Sara", DepartmentID: ptr(icu.ID), Telephone: "+971 50 123"}
	require.NoError(t, s.CreateTrainer(ctx, sara))
	require.NoError(t, s.CreateTrainer(ctx, &model.Trainer{Name: "Omar", DepartmentID: ptr(er.ID)}))
	require.NoError(t, s.CreateTrainer(ctx, &model.Trainer{Name: "Lina"}))

	all, err := s.ListTrainers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inICU, err := s.ListTrainers(ctx, ptr(icu.ID))
	require.NoError(t, err)
	require.Len(t, inICU, 1)
	assert.Equal(t, "Sara", inICU[0].Name)

	sara.DepartmentID = ptr(er.ID)
	require.NoError(t, s.UpdateTrainer(ctx, sara))
	got, err := s.GetTrainer(ctx, sara.ID)
	require.NoError(t, err)
	assert.Equal(t, er.ID, *got.DepartmentID)
	assert.Equal(t, "+971 50 123", got.Telephone)

	assert.ErrorIs(t, s.UpdateTrainer(ctx, &model.Trainer{ID: 999, Name: "X"}), ErrNotFound)

	require.NoError(t, s.DeleteTrainer(ctx, sara.ID))
	assert.ErrorIs(t, s.DeleteTrainer(ctx, sara.ID), ErrNotFound)
}

func TestEquipment(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	rec := quarter.Record{
		quarter.KeyQ1: {QuarterDate: "15/01/2025", Engineer: "ALICE"},
		quarter.KeyQ2: {QuarterDate: "15/04/2025"},
	}
	pump := &model.Equipment{Serial: "SN-001", Name: "Infusion Pump", Department: "ICU", Quarters: rec}
	require.NoError(t, s.CreateEquipment(ctx, pump))
	require.NoError(t, s.CreateEquipment(ctx, &model.Equipment{Serial: "SN-000", Name: "Monitor"}))

	assert.ErrorIs(t, s.CreateEquipment(ctx, &model.Equipment{Serial: "SN-001"}), ErrConflict)

	got, err := s.GetEquipmentBySerial(ctx, "SN-001")
	require.NoError(t, err)
	assert.Equal(t, rec, got.Quarters)

	list, err := s.ListEquipment(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "SN-000", list[0].Serial)
	assert.Empty(t, list[0].Quarters)

	got.Serial = "SN-000"
	assert.ErrorIs(t, s.UpdateEquipment(ctx, "SN-001", got), ErrConflict)

	got.Serial = "SN-002"
	got.Quarters[quarter.KeyQ2] = quarter.Slot{QuarterDate: "15/04/2025", Engineer: "BOB"}
	require.NoError(t, s.UpdateEquipment(ctx, "SN-001", got))

	_, err = s.GetEquipmentBySerial(ctx, "SN-001")
	assert.ErrorIs(t, err, ErrNotFound)
	renamed, err := s.GetEquipmentBySerial(ctx, "SN-002")
	require.NoError(t, err)
	assert.Equal(t, "BOB", renamed.Quarters[quarter.KeyQ2].Engineer)
	assert.Equal(t, pump.ID, renamed.ID)

	assert.ErrorIs(t, s.UpdateEquipment(ctx, "missing", &model.Equipment{}), ErrNotFound)
	require.NoError(t, s.DeleteEquipment(ctx, "SN-002"))
	assert.ErrorIs(t, s.DeleteEquipment(ctx, "SN-002"), ErrNotFound)
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	require.NoError(t, s.UpsertSubscription(ctx, &model.PushSubscription{Endpoint: "https://push/a", P256DH: "k1", Auth: "a1"}))
	require.NoError(t, s.UpsertSubscription(ctx, &model.PushSubscription{Endpoint: "https://push/a", P256DH: "k2", Auth: "a2"}))
	require.NoError(t, s.UpsertSubscription(ctx, &model.PushSubscription{Endpoint: "https://push/b", P256DH: "k", Auth: "a"}))

	got, err := s.GetSubscription(ctx, "https://push/a")
	require.NoError(t, err)
	assert.Equal(t, "k2", got.P256DH)
	assert.Equal(t, "a2", got.Auth)

	subs, err := s.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	require.NoError(t, s.DeleteSubscription(ctx, "https://push/a"))
	assert.ErrorIs(t, s.DeleteSubscription(ctx, "https://push/a"), ErrNotFound)
	_, err = s.GetSubscription(ctx, "https://push/a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)

	want := model.Settings{PushNotificationsEnabled: true, PushNotificationIntervalMinutes: 30, ReminderDays: 14}
	require.NoError(t, s.SaveSettings(ctx, want))
	require.NoError(t, s.SaveSettings(ctx, want))

	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.ReminderDays = 0
	assert.Error(t, s.SaveSettings(ctx, want))
}

func TestEnsureSettings_KeepsSavedValues(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	seed := model.Settings{PushNotificationsEnabled: true, PushNotificationIntervalMinutes: 15, ReminderDays: 10}
	require.NoError(t, s.EnsureSettings(ctx, seed))
	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	saved := model.Settings{PushNotificationsEnabled: false, PushNotificationIntervalMinutes: 90, ReminderDays: 2}
	require.NoError(t, s.SaveSettings(ctx, saved))
	require.NoError(t, s.EnsureSettings(ctx, seed))
	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	src := newSQLiteStore(t)

	icu := &model.Department{Name: "ICU"}
	require.NoError(t, src.CreateDepartment(ctx, icu))
	require.NoError(t, src.CreateTrainer(ctx, &model.Trainer{Name: "Sara", DepartmentID: ptr(icu.ID)}))
	require.NoError(t, src.CreateEquipment(ctx, &model.Equipment{
		Serial:   "SN-1",
		Quarters: quarter.Record{quarter.KeyQ3: {QuarterDate: "15/07/2025"}},
	}))
	require.NoError(t, src.UpsertSubscription(ctx, &model.PushSubscription{Endpoint: "https://push/a", P256DH: "k", Auth: "a"}))
	require.NoError(t, src.SaveSettings(ctx, model.Settings{PushNotificationsEnabled: true, PushNotificationIntervalMinutes: 5, ReminderDays: 3}))

	snap, err := src.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Len(t, snap.Departments, 1)
	assert.Len(t, snap.Trainers, 1)
	assert.Len(t, snap.Equipment, 1)
	assert.Len(t, snap.Subscriptions, 1)
	assert.Len(t, snap.Settings, 3)

	dst := newSQLiteStore(t)
	require.NoError(t, dst.CreateEquipment(ctx, &model.Equipment{Serial: "STALE"}))
	require.NoError(t, dst.RestoreSnapshot(ctx, snap))

	_, err = dst.GetEquipmentBySerial(ctx, "STALE")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := dst.GetEquipmentBySerial(ctx, "SN-1")
	require.NoError(t, err)
	assert.Equal(t, "15/07/2025", e.Quarters[quarter.KeyQ3].QuarterDate)

	trainers, err := dst.ListTrainers(ctx, ptr(icu.ID))
	require.NoError(t, err)
	assert.Len(t, trainers, 1)

	settings, err := dst.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, settings.PushNotificationIntervalMinutes)

	assert.Error(t, dst.RestoreSnapshot(ctx, &Snapshot{Version: 99}))
	assert.Error(t, dst.RestoreSnapshot(ctx, nil))
}
