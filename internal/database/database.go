// Package database opens the relational store and migrates the planner tables.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/focusnest/planner-service/internal/badges"
	"github.com/focusnest/planner-service/internal/chat"
	"github.com/focusnest/planner-service/internal/eventsink"
	"github.com/focusnest/planner-service/internal/files"
	"github.com/focusnest/planner-service/internal/learning"
	"github.com/focusnest/planner-service/internal/plans"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/todos"
	"github.com/focusnest/planner-service/internal/user"
)

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&user.User{},
		&stats.Stats{},
		&learning.Session{},
		&badges.Badge{},
		&files.File{},
		&chat.Conversation{},
		&chat.Message{},
		&plans.Plan{},
		&todos.Todo{},
		&eventsink.Record{},
	}
}

// Open connects to PostgreSQL and migrates the schema.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), Config(log))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, db, log); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Config returns the gorm settings shared by the server and the jobs binary.
// Duplicate-key violations surface as gorm.ErrDuplicatedKey.
func Config(log *slog.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Migrate creates or alters the planner tables.
func Migrate(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	start := time.Now()
	log.InfoContext(ctx, "starting database migration")
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.InfoContext(ctx, "database migration completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}
