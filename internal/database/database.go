package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/gema-grader/internal/models"
)

const sqliteScheme = "sqlite://"

// Connect opens the history database. DSNs starting with sqlite:// use the
// embedded SQLite driver; postgres:// and postgresql:// DSNs use PostgreSQL.
func Connect(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("history dsn must not be empty")
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, sqliteScheme):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqliteScheme))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported history dsn scheme: %s", dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the history tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.GradingRun{}, &models.GradingCase{}); err != nil {
		return fmt.Errorf("failed to migrate history database: %w", err)
	}
	return nil
}
