// Package database provides connection management, schema setup and
// the repository aggregate for the SmartFlow deal store.
//
// The data models (Deal, DeliveryData, ClientPattern, FetchLog) are
// defined in the models_pkg package so the sub-repositories can share
// them without circular imports; derived read-time shapes live in the
// types package.
package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "smartflow/database/models_pkg"
)

// Database holds the GORM database connection and provides access to
// the underlying DB instance.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access
// when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes the database connection using GORM
func Connect(dsn string) (*Database, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, WrapDBError("connect", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, WrapDBError("connect", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// Ping verifies that the connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ============================================================================
// Backward Compatibility Type Aliases
// ============================================================================

// Aliases so callers can refer to the models through the database
// package directly.

type Deal = models.Deal
type DeliveryData = models.DeliveryData
type ClientPattern = models.ClientPattern
type FetchLog = models.FetchLog
