package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "re-running migrations must be a no-op")

	var applied int64
	require.NoError(t, db.Model(&SchemaMigration{}).Count(&applied).Error)
	assert.Equal(t, int64(len(migrations())), applied)

	for _, table := range []string{"users", "sessions", "refresh_tokens", "measurements", "system_logs"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestRepairAddsMissingActivityColumns(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Exec("ALTER TABLE users DROP COLUMN visit_count").Error)
	require.NoError(t, db.Exec("ALTER TABLE users DROP COLUMN last_login").Error)

	require.NoError(t, RepairUserActivityColumns(db))
	assert.True(t, db.Migrator().HasColumn(&models.User{}, "visit_count"))
	assert.True(t, db.Migrator().HasColumn(&models.User{}, "last_login"))

	// Already-present columns are left alone.
	require.NoError(t, RepairUserActivityColumns(db))
}

func TestIsMissingColumn(t *testing.T) {
	assert.False(t, IsMissingColumn(nil))
	assert.False(t, IsMissingColumn(errors.New("connection refused")))
	assert.True(t, IsMissingColumn(errors.New(`ERROR: column "visit_count" does not exist (SQLSTATE 42703)`)))
	assert.True(t, IsMissingColumn(errors.New("no such column: visit_count")))
}
