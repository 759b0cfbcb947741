package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/config"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the store selected by cfg.DBDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case DriverPostgres:
		return NewPostgresDB(cfg.DSN())
	case DriverSQLite:
		return NewSQLiteDB(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         newLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// newLogger reports slow queries and errors. Missing rows are an expected
// outcome of lookups and are not logged.
func newLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// NewSQLiteDB opens a file (or ":memory:") database on a single connection, so
// transactions are serialised.
func NewSQLiteDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates or updates every table. On postgres it also installs the
// exclusion constraint that rejects overlapping blocking bookings.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Property{},
		&models.Booking{},
		&models.EarlyExitRequest{},
		&models.InspectionReport{},
		&models.InspectionImage{},
		&models.Settlement{},
		&models.BookingMessage{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if db.Dialector.Name() != DriverPostgres {
		return nil
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("install btree_gist: %w", err)
	}
	if err := db.Exec(noOverlapConstraint).Error; err != nil {
		return fmt.Errorf("add bookings_no_overlap: %w", err)
	}
	log.Println("[Database] exclusion constraint bookings_no_overlap in place")
	return nil
}

const noOverlapConstraint = `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
		EXCLUDE USING gist (property_id WITH =, daterange(start_date, end_date, '[)') WITH &&)
		WHERE (status IN ('pending', 'approved'));
	END IF;
END
$$`
