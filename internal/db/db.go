package db

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/blogicum/internal/config"
	"github.com/example/blogicum/internal/models"
)

type Database struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

func Connect(cfg *config.Config) (*Database, error) {
	gormDB, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{Logger: logger.Default.LogMode(LogLevel(cfg.DBLogLevel))})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	return &Database{Gorm: gormDB, SQL: sqlDB}, nil
}

func DSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimezone)
}

// LogLevel maps DB_LOG_LEVEL to gorm's logger levels; unknown values mean warn.
func LogLevel(name string) logger.LogLevel {
	switch strings.ToLower(name) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate creates or updates every table plus the indexes gorm tags cannot express.
func (d *Database) Migrate() error {
	if err := d.Gorm.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return d.EnsureFeedIndex()
}

// EnsureFeedIndex backs the public feed query, which filters on
// is_published and orders by pub_date descending.
func (d *Database) EnsureFeedIndex() error {
	return d.Gorm.Exec("CREATE INDEX IF NOT EXISTS idx_posts_feed ON posts (is_published, pub_date DESC);").Error
}

func (d *Database) Close() error {
	if d.SQL != nil {
		return d.SQL.Close()
	}
	return nil
}
