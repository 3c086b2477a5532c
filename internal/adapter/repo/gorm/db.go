package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"necroos/internal/adapter/repo/gorm/migrations"
)

// OpenPostgres connects and brings the schema up to date.
func OpenPostgres(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := ApplyMigrations(ctx, db, migrations.FS); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return db, nil
}
