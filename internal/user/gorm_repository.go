package user

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

// NewGormRepository creates a relational user repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Get(ctx context.Context, userID string) (User, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", userID)
}

func (r *gormRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.first(r.db.WithContext(ctx), "email = ?", email)
}

func (r *gormRepository) first(db *gorm.DB, query string, arg any) (User, error) {
	var u User
	err := db.Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *gormRepository) CreateIfMissing(ctx context.Context, u User) (User, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&u)
	if res.Error != nil {
		return User{}, false, res.Error
	}
	if res.RowsAffected > 0 {
		return u, true, nil
	}

	existing, err := r.GetByEmail(ctx, u.Email)
	if err != nil {
		return User{}, false, err
	}
	return existing, false, nil
}

func (r *gormRepository) Credits(ctx context.Context, userID string) (int, error) {
	u, err := r.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}

func (r *gormRepository) UpdateCredits(ctx context.Context, userID string, at time.Time, fn func(int) (int, error)) (int, error) {
	var balance int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := r.first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", userID)
		if err != nil {
			return err
		}

		next, err := fn(u.Credits)
		if err != nil {
			return err
		}
		if err := tx.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
			"credits":    next,
			"updated_at": at,
		}).Error; err != nil {
			return err
		}
		balance = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
