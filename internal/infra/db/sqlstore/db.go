// Package sqlstore persists listings, bookings, reviews and the ambient
// stores in a relational database through gorm. Postgres is the production
// target and sqlite serves local runs and tests.
package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnknownDriver = errors.New("sqlstore: unknown driver")

// Open connects with driver "postgres" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if dialector.Name() == "sqlite" {
		// One connection keeps sqlite writers from racing for the file lock.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Models lists every table owned by the store.
func Models() []any {
	return []any{
		&listingModel{},
		&bookingModel{},
		&reviewModel{},
		&outboxModel{},
		&idempotencyModel{},
		&userModel{},
		&sessionModel{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
