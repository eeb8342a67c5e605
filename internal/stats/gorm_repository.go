package stats

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a relational stats repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Get(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Stats{}, ErrNotFound
	}
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (r *gormRepository) Create(ctx context.Context, st Stats) error {
	err := r.db.WithContext(ctx).Create(&st).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (r *gormRepository) Update(ctx context.Context, userID string, fn func(*Stats) error) (Stats, error) {
	var out Stats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st Stats
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := fn(&st); err != nil {
			return err
		}
		st.UserID = userID
		if err := tx.Model(&st).Select("*").Updates(&st).Error; err != nil {
			return err
		}
		out = st
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (r *gormRepository) ResetPeriod(ctx context.Context, period Period, at time.Time) (int, error) {
	field, err := periodField(period)
	if err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Model(&Stats{}).
		Where(field+" <> 0").
		Updates(map[string]any{field: 0, "updated_at": at})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
