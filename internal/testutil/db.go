// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lshigami/pblagro/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an isolated in-memory SQLite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// A shared-cache memory database lives as long as one connection stays open.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func SeedLearner(t *testing.T, db *gorm.DB, l model.Learner) model.Learner {
	t.Helper()
	if l.Role == "" {
		l.Role = model.RoleStudent
	}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("seed learner: %v", err)
	}
	return l
}

func SeedContent(t *testing.T, db *gorm.DB, u model.ContentUnit) model.ContentUnit {
	t.Helper()
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed content unit: %v", err)
	}
	return u
}
