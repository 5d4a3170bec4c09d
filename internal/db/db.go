package db

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/v4ult/internal/models"
)

// DefaultURL is used when DATABASE_URL is empty.
const DefaultURL = "sqlite://v4ult.db"

// Open connects to the database named by url, which must start with
// postgres:// or sqlite://.
func Open(url string, verbose bool) (*gorm.DB, error) {
	if url == "" {
		url = DefaultURL
		slog.Info("DATABASE_URL not set, using default", slog.String("url", url), slog.String("module", "db"))
	}

	var (
		dialector gorm.Dialector
		isSQLite  bool
	)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		dialector = postgres.Open(url)
		slog.Info("connecting to PostgreSQL", slog.String("module", "db"))
	case strings.HasPrefix(url, "sqlite://"):
		dsn := strings.TrimPrefix(url, "sqlite://")
		dialector = sqlite.Open(dsn)
		isSQLite = true
		slog.Info("connecting to SQLite", slog.String("path", dsn), slog.String("module", "db"))
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL %q: must start with postgres:// or sqlite://", url)
	}

	level := logger.Silent
	if verbose {
		level = logger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite {
		// one writer at a time; also keeps :memory: databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
