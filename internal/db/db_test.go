package db

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppm-tracker-backend/config"
	"ppm-tracker-backend/internal/model"
)

func TestInit_SQLiteMemory(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}
	gdb, err := Init(cfg, zerolog.Nop())
	require.NoError(t, err)

	for _, m := range Models() {
		assert.True(t, gdb.Migrator().HasTable(m))
	}
	assert.True(t, gdb.Migrator().HasIndex(&model.Equipment{}, "Serial"))
}

func TestInit_SQLiteFileCreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "ppm.db")
	gdb, err := Init(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Close())
	assert.FileExists(t, dsn)
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unsupported database driver")
}
