package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/posko-pajak/api-go/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func (dc DatabaseConfig) DSN() string {
	if dc.URL != "" {
		return dc.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		dc.Host, dc.User, dc.Password, dc.Name, dc.Port)
}

// gormWriter sends gorm's slow query and error lines to apex/log.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	log.WithField("component", "gorm").Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// NewGormLogger logs slow queries and failed statements. Missing rows are an
// expected outcome of lookups and are not logged.
func NewGormLogger() logger.Interface {
	return logger.New(gormWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// InitDB opens the database and migrates the schema.
func InitDB(dc DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: NewGormLogger()}

	var (
		db  *gorm.DB
		err error
	)
	switch dc.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dc.Path), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", dc.Path, err)
		}
		// a single connection keeps ":memory:" databases alive and serialises writers
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	case "postgres", "":
		db, err = gorm.Open(postgres.Open(dc.DSN()), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", dc.Driver)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.RefreshToken{},
		&models.Report{},
		&models.ReportAttachment{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
