package files

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a relational file metadata repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, f File) error {
	return r.db.WithContext(ctx).Create(&f).Error
}

func (r *gormRepository) Get(ctx context.Context, fileID string) (File, error) {
	var f File
	err := r.db.WithContext(ctx).Where("id = ?", fileID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return File{}, ErrNotFound
	}
	return f, err
}

func (r *gormRepository) ListByUser(ctx context.Context, userID string) ([]File, error) {
	var out []File
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) Delete(ctx context.Context, fileID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", fileID).Delete(&File{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
