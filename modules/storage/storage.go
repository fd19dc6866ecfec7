// Package storage opens the shared SQLite database. Identity and pairing
// share one handle so a claim can mutate both tables in a single
// transaction.
package storage

import (
	"fmt"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Emerick-P/QuackChat/modules/identity"
	"github.com/Emerick-P/QuackChat/modules/pairing"
)

// Open connects to the SQLite database at path and runs migrations.
func Open(path string) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&identity.User{}, &pairing.Code{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
