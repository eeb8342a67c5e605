package badges

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a relational badge repository keyed by (user_id, name).
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Award(ctx context.Context, b Badge) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&b)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) ListByUser(ctx context.Context, userID string) ([]Badge, error) {
	var out []Badge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at ASC, name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
