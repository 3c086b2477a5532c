package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"necroos/internal/adapter/repo/gorm/model"
	"necroos/internal/app/ports"
)

// SnapshotRepo keeps snapshot values in the haunting_snapshots table. A
// positive MaxBytes caps the combined size of all stored values.
type SnapshotRepo struct {
	db       *gorm.DB
	maxBytes int
}

func NewSnapshotRepo(db *gorm.DB, maxBytes int) SnapshotRepo {
	return SnapshotRepo{db: db, maxBytes: maxBytes}
}

func (r SnapshotRepo) Get(ctx context.Context, key string) (string, error) {
	var m model.HauntingSnapshot
	if err := getDBFromCtx(ctx, r.db).WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ports.ErrNotFound
		}
		return "", fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return m.Value, nil
}

func (r SnapshotRepo) Set(ctx context.Context, key, value string) error {
	db := getDBFromCtx(ctx, r.db).WithContext(ctx)
	if r.maxBytes > 0 {
		var used int64
		if err := db.Model(&model.HauntingSnapshot{}).
			Where("key <> ?", key).
			Select("COALESCE(SUM(OCTET_LENGTH(value)), 0)").
			Scan(&used).Error; err != nil {
			return fmt.Errorf("measure snapshots: %w", err)
		}
		if int(used)+len(value) > r.maxBytes {
			return fmt.Errorf("%w: %s needs %d bytes", ports.ErrQuotaExceeded, key, len(value))
		}
	}
	m := model.HauntingSnapshot{Key: key, Value: value, UpdatedAt: time.Now()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("set snapshot %s: %w", key, err)
	}
	return nil
}

func (r SnapshotRepo) Delete(ctx context.Context, key string) error {
	err := getDBFromCtx(ctx, r.db).WithContext(ctx).Where("key = ?", key).Delete(&model.HauntingSnapshot{}).Error
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	return nil
}
