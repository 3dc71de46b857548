// Package storage owns the GORM handle shared by the directory and the
// ledger. The backend is chosen from DATABASE_URL: a postgres:// URL gets
// the postgres driver, anything else is treated as a sqlite path.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-google-auth/token/ledger"
	"github.com/jrsteele09/go-google-auth/users"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage wraps the database handle and its lifecycle.
type Storage struct {
	db *gorm.DB
}

// Open connects to the configured database and auto-creates the User and
// RefreshTokenRecord tables if absent.
func Open(databaseURL, environment string) (*Storage, error) {
	gormConfig := &gorm.Config{
		// Map driver unique-violation errors onto gorm.ErrDuplicatedKey
		// so the repositories can treat conflicts uniformly.
		TranslateError: true,
	}
	if environment != "DEV" {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialectorFor(databaseURL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("[storage Open] connect: %w", err)
	}

	if err := db.AutoMigrate(&users.User{}, &ledger.RefreshTokenRecord{}); err != nil {
		return nil, fmt.Errorf("[storage Open] migrate: %w", err)
	}

	return &Storage{db: db}, nil
}

func dialectorFor(databaseURL string) gorm.Dialector {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.Open(databaseURL)
	}
	return sqlite.Open(databaseURL)
}

// DB returns the shared GORM handle.
func (s *Storage) DB() *gorm.DB {
	return s.db
}

// Ping verifies the database connection, bounded by a short deadline so a
// wedged backend cannot stall the health endpoint.
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("[storage Ping]: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("[storage Close]: %w", err)
	}
	return sqlDB.Close()
}
