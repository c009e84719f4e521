// Package db is the postgres-backed store.Store built on gorm.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ecoloop/internal/store"
)

// Open connects to postgres. TranslateError makes unique violations surface
// as gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info().Msg("Database connection established")
	return gdb, nil
}

// Migrate creates or updates every table the store uses.
func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&userRow{},
		&postRow{},
		&pickupRow{},
		&pointRow{},
		&materialRow{},
		&materialPriceRow{},
		&notificationRow{},
		&conversationRow{},
		&messageRow{},
		&commentRow{},
		&supportRow{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info().Msg("Database migration completed")
	return nil
}

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps gorm errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	}
	return err
}
