package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aquafield/aquafield-backend/internal/models"
	"gorm.io/gorm"
)

// SchemaMigration records which versioned migrations have been applied.
type SchemaMigration struct {
	ID        string    `gorm:"primaryKey;size:100"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	id  string
	run func(tx *gorm.DB) error
}

func migrations() []migration {
	return []migration{
		{"001_base_tables", func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.User{},
				&models.Session{},
				&models.RefreshToken{},
				&models.Measurement{},
				&models.SystemLog{},
			)
		}},
		// The deployed users table has drifted before (activity columns dropped
		// by an external tool); keep this as its own step so re-deploys heal it.
		{"002_user_activity_columns", RepairUserActivityColumns},
	}
}

// Migrate applies all pending migrations in order. It runs at startup, before
// the server accepts traffic, and each step is recorded so re-runs are no-ops.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	for _, m := range migrations() {
		var applied int64
		if err := db.Model(&SchemaMigration{}).Where("id = ?", m.id).Count(&applied).Error; err != nil {
			return fmt.Errorf("failed to read schema_migrations: %w", err)
		}
		if applied > 0 {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{ID: m.id, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", m.id, err)
		}
		slog.Info("migration applied", "id", m.id)
	}
	return nil
}

// RepairUserActivityColumns adds the user activity columns if an externally
// evolved users table is missing them. Purely additive and idempotent; also
// invoked reactively when a user read fails with a missing-column error.
func RepairUserActivityColumns(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, col := range []string{"visit_count", "last_login", "created_at"} {
		if migrator.HasColumn(&models.User{}, col) {
			continue
		}
		if err := migrator.AddColumn(&models.User{}, col); err != nil {
			return fmt.Errorf("failed to add users.%s: %w", col, err)
		}
		slog.Warn("schema repair added missing column", "table", "users", "column", col)
	}
	return nil
}

// IsMissingColumn reports whether err is a missing-column failure, i.e. schema
// drift that RepairUserActivityColumns can fix. Matches Postgres (SQLSTATE
// 42703) and SQLite ("no such column") phrasing.
func IsMissingColumn(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 42703") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "does not exist")
}
