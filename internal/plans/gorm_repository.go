package plans

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a relational plan repository. Steps are stored as a jsonb column.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p Plan) error {
	return r.db.WithContext(ctx).Create(&p).Error
}

func (r *gormRepository) Get(ctx context.Context, planID string) (Plan, error) {
	var p Plan
	err := r.db.WithContext(ctx).Where("id = ?", planID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Plan{}, ErrNotFound
	}
	return p, err
}

func (r *gormRepository) ListByUser(ctx context.Context, userID string) ([]Plan, error) {
	var out []Plan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *gormRepository) Delete(ctx context.Context, planID string) error {
	res := r.db.WithContext(ctx).Delete(&Plan{}, "id = ?", planID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
