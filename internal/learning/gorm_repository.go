package learning

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a relational session repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, session Session) error {
	err := r.db.WithContext(ctx).Create(&session).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (r *gormRepository) Get(ctx context.Context, sessionID string) (Session, error) {
	var sess Session
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrNotFound
	}
	return sess, err
}

func (r *gormRepository) Update(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	var out Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", sessionID).First(&sess).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := fn(&sess); err != nil {
			return err
		}
		if err := tx.Model(&Session{}).Where("id = ?", sessionID).Updates(map[string]any{
			"ended_at":      sess.EndedAt,
			"duration_ms":   sess.DurationMs,
			"stats_pending": sess.StatsPending,
		}).Error; err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

func (r *gormRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Session, error) {
	var out []Session
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
