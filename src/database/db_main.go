package database

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"traderelay/src/database/migrations"
	"traderelay/src/model"
)

// MainDB holds the trade journal and captured exceptions. It stays nil when
// ENABLE_DB is off.
var MainDB *gorm.DB

// InitMainDB opens the journal database and migrates it. It is a no-op when
// the database is disabled.
func InitMainDB() error {
	config := GetConfig()
	if !config.EnableDB {
		logrus.Info("[database] disabled, trade journal is not persisted")
		return nil
	}

	db, err := Open(config)
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	MainDB = db
	logrus.Info("[database] MainDB connection established")
	return nil
}

// Open connects to config.DatabaseURL and tunes the pool.
func Open(config Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	return db, nil
}

// Migrate creates or updates the journal schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.TradeJournal{},
		&model.Exception{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations: %w", err)
	}
	logrus.Info("[database] migrations completed")
	return nil
}

func dialectorFor(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return sqlite.Open(url), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}
}
