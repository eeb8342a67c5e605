package todos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a relational todo repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, t Todo) error {
	return r.db.WithContext(ctx).Create(&t).Error
}

func (r *gormRepository) Get(ctx context.Context, todoID string) (Todo, error) {
	var t Todo
	err := r.db.WithContext(ctx).Where("id = ?", todoID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Todo{}, ErrNotFound
	}
	return t, err
}

func (r *gormRepository) ListByUser(ctx context.Context, userID string, filter Filter) ([]Todo, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.PlanID != "" {
		q = q.Where("plan_id = ?", filter.PlanID)
	}
	if filter.PendingOnly {
		q = q.Where("completed = ?", false)
	}
	var out []Todo
	if err := q.Order("created_at ASC").Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) Update(ctx context.Context, todoID string, fn func(*Todo) error) (Todo, error) {
	var out Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Todo
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", todoID).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&t); err != nil {
			return err
		}
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return Todo{}, err
	}
	return out, nil
}

func (r *gormRepository) Delete(ctx context.Context, todoID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", todoID).Delete(&Todo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) UpdatePending(ctx context.Context, userID, planID string, fn func(*Todo) error) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND completed = ? AND due_date <> ''", userID, false)
		if planID != "" {
			q = q.Where("plan_id = ?", planID)
		}
		var pending []Todo
		if err := q.Find(&pending).Error; err != nil {
			return err
		}

		for i := range pending {
			if err := fn(&pending[i]); err != nil {
				return err
			}
			if err := tx.Model(&Todo{}).Where("id = ?", pending[i].ID).Updates(map[string]any{
				"due_date":   pending[i].DueDate,
				"updated_at": pending[i].UpdatedAt,
			}).Error; err != nil {
				return err
			}
		}
		count = len(pending)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
